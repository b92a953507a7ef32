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

import (
	"sort"

	"github.com/pingcap/errors"
)

// Snapshot is the reference in-memory Graph implementation. It is
// immutable after Build and safe for concurrent reads.
type Snapshot struct {
	entities    map[string]EntityMeta
	columns     map[string]ColumnMeta
	rels        map[string]RelationshipMeta
	measures    map[string][]ColumnRef
	dimensions  map[string]ColumnRef
	hierarchies map[string][]ColumnRef
	aggHints    map[string]AggregationHint
	joinHints   map[string]JoinHint
	adjacency   map[string][]string
}

var _ Graph = (*Snapshot)(nil)

func columnKey(entity, column string) string {
	return entity + "." + column
}

func relKey(from, to string) string {
	return from + "->" + to
}

func (s *Snapshot) Entity(name string) (EntityMeta, bool) {
	e, ok := s.entities[name]
	return e, ok
}

func (s *Snapshot) Column(entity, column string) (ColumnMeta, bool) {
	c, ok := s.columns[columnKey(entity, column)]
	return c, ok
}

func (s *Snapshot) Relationship(from, to string) (RelationshipMeta, bool) {
	if r, ok := s.rels[relKey(from, to)]; ok {
		return r, true
	}
	if r, ok := s.rels[relKey(to, from)]; ok {
		return r.Invert(), true
	}
	return RelationshipMeta{}, false
}

func (s *Snapshot) MeasureColumns(measure string) ([]ColumnRef, bool) {
	cols, ok := s.measures[measure]
	return cols, ok
}

func (s *Snapshot) DimensionColumn(dimension string) (ColumnRef, bool) {
	c, ok := s.dimensions[dimension]
	return c, ok
}

func (s *Snapshot) Hierarchy(entity string) ([]ColumnRef, bool) {
	h, ok := s.hierarchies[entity]
	return h, ok
}

func (s *Snapshot) JoinHint(left, right string) JoinHint {
	if h, ok := s.joinHints[relKey(left, right)]; ok {
		return h
	}
	if h, ok := s.joinHints[relKey(right, left)]; ok {
		return h
	}
	return JoinHintNone
}

func (s *Snapshot) AggregationHint(entity string) AggregationHint {
	if h, ok := s.aggHints[entity]; ok {
		return h
	}
	return AggHintNone
}

func (s *Snapshot) PathSafe(path Path) bool {
	return len(path.ManyProducingHops()) == 0
}

// JoinPath connects the entities in input order: starting from the
// first, each subsequent entity is reached by BFS over the relationship
// graph from the already-connected set. Each search first restricts
// itself to hops that do not multiply rows; a many-producing hop is
// taken only when no row-preserving route exists, so a longer safe
// route beats a shorter fan-out one. Neighbor expansion is sorted so
// the result is stable for a given snapshot.
func (s *Snapshot) JoinPath(entities []string) (Path, bool) {
	if len(entities) <= 1 {
		return nil, true
	}
	for _, e := range entities {
		if _, ok := s.entities[e]; !ok {
			return nil, false
		}
	}

	connected := map[string]bool{entities[0]: true}
	var path Path
	onPath := make(map[string]bool)

	for _, target := range entities[1:] {
		if connected[target] {
			continue
		}
		hops, ok := s.shortestHops(connected, target, true)
		if !ok {
			hops, ok = s.shortestHops(connected, target, false)
		}
		if !ok {
			return nil, false
		}
		for _, h := range hops {
			key := relKey(h.From, h.To)
			if !onPath[key] && !onPath[relKey(h.To, h.From)] {
				onPath[key] = true
				path = append(path, h)
			}
			connected[h.From] = true
			connected[h.To] = true
		}
	}
	return path, true
}

// shortestHops runs a multi-source BFS from the connected set to target
// and returns the hops oriented connected→target. With safeOnly set the
// search refuses edges whose traversal direction multiplies rows.
func (s *Snapshot) shortestHops(connected map[string]bool, target string, safeOnly bool) ([]Hop, bool) {
	type parentLink struct {
		prev string
		hop  Hop
	}
	parents := make(map[string]parentLink)
	visited := make(map[string]bool, len(connected))

	sources := make([]string, 0, len(connected))
	for e := range connected {
		sources = append(sources, e)
	}
	sort.Strings(sources)

	queue := append([]string(nil), sources...)
	for _, e := range sources {
		visited[e] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			var hops []Hop
			for at := target; !connected[at]; at = parents[at].prev {
				hops = append([]Hop{parents[at].hop}, hops...)
			}
			return hops, true
		}
		for _, next := range s.adjacency[current] {
			if visited[next] {
				continue
			}
			rel, ok := s.Relationship(current, next)
			if !ok {
				continue
			}
			if safeOnly && rel.Cardinality.ManyProducing() {
				continue
			}
			visited[next] = true
			parents[next] = parentLink{prev: current, hop: Hop{From: current, To: next, Rel: rel}}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// SnapshotBuilder accumulates metadata and produces an immutable
// Snapshot. Build may be called once.
type SnapshotBuilder struct {
	snapshot *Snapshot
	built    bool
}

func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{
		snapshot: &Snapshot{
			entities:    make(map[string]EntityMeta),
			columns:     make(map[string]ColumnMeta),
			rels:        make(map[string]RelationshipMeta),
			measures:    make(map[string][]ColumnRef),
			dimensions:  make(map[string]ColumnRef),
			hierarchies: make(map[string][]ColumnRef),
			aggHints:    make(map[string]AggregationHint),
			joinHints:   make(map[string]JoinHint),
			adjacency:   make(map[string][]string),
		},
	}
}

func (b *SnapshotBuilder) Entity(meta EntityMeta) *SnapshotBuilder {
	b.snapshot.entities[meta.Name] = meta
	return b
}

func (b *SnapshotBuilder) Column(meta ColumnMeta) *SnapshotBuilder {
	b.snapshot.columns[columnKey(meta.Entity, meta.Name)] = meta
	return b
}

func (b *SnapshotBuilder) Relationship(meta RelationshipMeta) *SnapshotBuilder {
	b.snapshot.rels[relKey(meta.From, meta.To)] = meta
	b.link(meta.From, meta.To)
	b.link(meta.To, meta.From)
	return b
}

func (b *SnapshotBuilder) Measure(name string, columns ...ColumnRef) *SnapshotBuilder {
	b.snapshot.measures[name] = columns
	return b
}

func (b *SnapshotBuilder) Dimension(name string, column ColumnRef) *SnapshotBuilder {
	b.snapshot.dimensions[name] = column
	return b
}

func (b *SnapshotBuilder) Hierarchy(entity string, levels ...ColumnRef) *SnapshotBuilder {
	b.snapshot.hierarchies[entity] = levels
	return b
}

func (b *SnapshotBuilder) AggregationHint(entity string, hint AggregationHint) *SnapshotBuilder {
	b.snapshot.aggHints[entity] = hint
	return b
}

func (b *SnapshotBuilder) JoinHint(left, right string, hint JoinHint) *SnapshotBuilder {
	b.snapshot.joinHints[relKey(left, right)] = hint
	return b
}

func (b *SnapshotBuilder) link(from, to string) {
	for _, n := range b.snapshot.adjacency[from] {
		if n == to {
			return
		}
	}
	b.snapshot.adjacency[from] = append(b.snapshot.adjacency[from], to)
}

// Build freezes and returns the snapshot.
func (b *SnapshotBuilder) Build() (*Snapshot, error) {
	if b.built {
		return nil, errors.New("snapshot builder already consumed")
	}
	b.built = true
	for _, neighbors := range b.snapshot.adjacency {
		sort.Strings(neighbors)
	}
	return b.snapshot, nil
}
