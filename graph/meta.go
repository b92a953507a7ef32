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

// EntityKind classifies an entity for join and aggregation heuristics.
type EntityKind int

const (
	EntityFact EntityKind = iota
	EntityDimension
	EntityCalendar
)

func (k EntityKind) String() string {
	switch k {
	case EntityFact:
		return "fact"
	case EntityDimension:
		return "dimension"
	case EntityCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

// SizeCategory is a coarse row-count bucket used when exact counts are
// missing.
type SizeCategory int

const (
	SizeUnknown SizeCategory = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

// DefaultRows is the conservative row estimate for a bucket.
func (s SizeCategory) DefaultRows() float64 {
	switch s {
	case SizeSmall:
		return 1e3
	case SizeMedium:
		return 1e5
	case SizeLarge:
		return 1e7
	default:
		return 1e5
	}
}

func (s SizeCategory) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Cardinality of a relationship, oriented from→to.
type Cardinality int

const (
	OneToOne Cardinality = iota
	OneToMany
	ManyToOne
	ManyToMany
)

func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "1:1"
	case OneToMany:
		return "1:N"
	case ManyToOne:
		return "N:1"
	case ManyToMany:
		return "N:N"
	default:
		return "?"
	}
}

// Invert flips the orientation of a cardinality.
func (c Cardinality) Invert() Cardinality {
	switch c {
	case OneToMany:
		return ManyToOne
	case ManyToOne:
		return OneToMany
	}
	return c
}

// ManyProducing reports whether traversing from→to can duplicate rows of
// the from side.
func (c Cardinality) ManyProducing() bool {
	return c == OneToMany || c == ManyToMany
}

// Trust records where relationship knowledge came from.
type Trust int

const (
	TrustExplicit Trust = iota
	TrustForeignKey
	TrustConvention
	TrustStatistical
)

func (t Trust) String() string {
	switch t {
	case TrustExplicit:
		return "explicit"
	case TrustForeignKey:
		return "foreign-key"
	case TrustConvention:
		return "convention"
	case TrustStatistical:
		return "statistical"
	default:
		return "unknown"
	}
}

// EntityMeta is the per-entity statistics snapshot. RowCount of zero
// means unknown; consumers fall back to Size.DefaultRows.
type EntityMeta struct {
	Name     string
	Kind     EntityKind
	RowCount int64
	Size     SizeCategory
}

// Rows returns the best available row estimate.
func (e EntityMeta) Rows() float64 {
	if e.RowCount > 0 {
		return float64(e.RowCount)
	}
	return e.Size.DefaultRows()
}

// ColumnMeta is the per-column statistics snapshot. DistinctCount of
// zero means unknown.
type ColumnMeta struct {
	Entity        string
	Name          string
	DataType      string
	Unique        bool
	DistinctCount int64
}

// RelationshipMeta describes how two entities connect, oriented From→To.
// AvgFanOut of zero means unknown.
type RelationshipMeta struct {
	From        string
	To          string
	FromColumn  string
	ToColumn    string
	Cardinality Cardinality
	Trust       Trust
	AvgFanOut   float64
}

// Invert returns the same relationship seen from the other side.
func (r RelationshipMeta) Invert() RelationshipMeta {
	return RelationshipMeta{
		From:        r.To,
		To:          r.From,
		FromColumn:  r.ToColumn,
		ToColumn:    r.FromColumn,
		Cardinality: r.Cardinality.Invert(),
		Trust:       r.Trust,
		AvgFanOut:   r.AvgFanOut,
	}
}

// ColumnRef names a column on an entity.
type ColumnRef struct {
	Entity string
	Column string
}

func (c ColumnRef) String() string {
	return c.Entity + "." + c.Column
}

// Hop is one traversed relationship of a join path, oriented From→To in
// traversal direction.
type Hop struct {
	From string
	To   string
	Rel  RelationshipMeta
}

// Path is a connected hop sequence linking two or more entities.
type Path []Hop

// Entities lists the path's entities in traversal order, first entity
// first, without duplicates.
func (p Path) Entities() []string {
	if len(p) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(p)+1)
	out := make([]string, 0, len(p)+1)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	add(p[0].From)
	for _, h := range p {
		add(h.From)
		add(h.To)
	}
	return out
}

// ManyProducingHops returns the hops that can duplicate rows of their
// source side.
func (p Path) ManyProducingHops() []Hop {
	var out []Hop
	for _, h := range p {
		if h.Rel.Cardinality.ManyProducing() {
			out = append(out, h)
		}
	}
	return out
}

// JoinHint suggests a physical join flavor for a relationship.
type JoinHint int

const (
	JoinHintNone JoinHint = iota
	JoinHintHash
	JoinHintLookup
)

// AggregationHint suggests an aggregation placement for an entity.
type AggregationHint int

const (
	AggHintNone AggregationHint = iota
	AggHintPreAggregate
	AggHintPostAggregate
)
