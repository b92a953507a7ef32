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

package graph

// Mock helpers for planner tests. They live beside the interface so every
// package can assemble a schema without repeating builder boilerplate.

type MockedEntity struct {
	Name string
	Kind EntityKind
	Rows int64
	Size SizeCategory
}

// MockSnapshot assembles a snapshot from terse inputs. Measures map a
// measure name to its columns (owner entity first); dims map a dimension
// name to its owning column.
func MockSnapshot(entities []MockedEntity, rels []RelationshipMeta, measures map[string][]ColumnRef, dims map[string]ColumnRef) *Snapshot {
	b := NewSnapshotBuilder()
	for _, e := range entities {
		b.Entity(EntityMeta{Name: e.Name, Kind: e.Kind, RowCount: e.Rows, Size: e.Size})
	}
	for _, r := range rels {
		b.Relationship(r)
	}
	for name, cols := range measures {
		b.Measure(name, cols...)
		for _, c := range cols {
			b.Column(ColumnMeta{Entity: c.Entity, Name: c.Column, DataType: "numeric"})
		}
	}
	for name, col := range dims {
		b.Dimension(name, col)
		b.Column(ColumnMeta{Entity: col.Entity, Name: col.Column, DataType: "text"})
	}
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// MockFactDimension builds the common star fragment: a fact joined N:1
// to a dimension through fk/key columns.
func MockFactDimension(fact string, factRows int64, dim string, dimRows int64) *Snapshot {
	return MockSnapshot(
		[]MockedEntity{
			{Name: fact, Kind: EntityFact, Rows: factRows, Size: SizeLarge},
			{Name: dim, Kind: EntityDimension, Rows: dimRows, Size: SizeSmall},
		},
		[]RelationshipMeta{{
			From:        fact,
			To:          dim,
			FromColumn:  dim + "_id",
			ToColumn:    "id",
			Cardinality: ManyToOne,
			Trust:       TrustForeignKey,
		}},
		nil, nil,
	)
}
