/*
 * Copyright 2025. Mantis Author All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package graph defines the semantic metadata interface the planner
// consumes. The snapshot is built, persisted and invalidated by an
// upstream provider; the planner only reads it.
package graph

// Graph is an immutable metadata snapshot. All methods are pure reads
// and safe for concurrent use across simultaneous planning calls.
type Graph interface {
	// Entity returns metadata for a named entity.
	Entity(name string) (EntityMeta, bool)

	// Column returns metadata for an (entity, column) pair.
	Column(entity, column string) (ColumnMeta, bool)

	// Relationship returns the relationship between two entities,
	// oriented from→to, in either stored direction.
	Relationship(from, to string) (RelationshipMeta, bool)

	// JoinPath discovers an ordered hop sequence connecting all the
	// given entities. The second return is false when no path exists.
	// Output is deterministic for a given snapshot and input order.
	JoinPath(entities []string) (Path, bool)

	// PathSafe reports whether the path traverses no many-producing
	// relationship direction. An unsafe path needs an aggregation
	// anchor on every many side before the planner will accept it.
	PathSafe(path Path) bool

	// JoinHint suggests a join flavor for a pair of entities.
	JoinHint(left, right string) JoinHint

	// AggregationHint suggests aggregation placement for an entity.
	AggregationHint(entity string) AggregationHint

	// MeasureColumns returns the columns a named measure depends on.
	// The first column's entity is the measure's owner.
	MeasureColumns(measure string) ([]ColumnRef, bool)

	// DimensionColumn resolves a dimension name to its owning column.
	DimensionColumn(dimension string) (ColumnRef, bool)

	// Hierarchy returns the drill levels of a calendar or hierarchical
	// entity, outermost level first.
	Hierarchy(entity string) ([]ColumnRef, bool)
}
