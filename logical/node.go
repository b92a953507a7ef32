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

// Package logical builds the semantic operation tree for a report. The
// tree records what must happen, never how: no join ordering for cost,
// no aggregation placement, no time-calculation strategy.
package logical

import (
	"fmt"
	"strings"

	"github.com/druarnfield/mantis-core-sub002/expr"
	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/report"
)

// NodeKind is the closed set of logical operator kinds.
type NodeKind int

const (
	KindScan NodeKind = iota
	KindJoin
	KindFilter
	KindAggregate
	KindTimeMeasure
	KindDrillPath
	KindInlineMeasure
	KindProject
	KindSort
	KindLimit
)

func (k NodeKind) String() string {
	switch k {
	case KindScan:
		return "Scan"
	case KindJoin:
		return "Join"
	case KindFilter:
		return "Filter"
	case KindAggregate:
		return "Aggregate"
	case KindTimeMeasure:
		return "TimeMeasure"
	case KindDrillPath:
		return "DrillPath"
	case KindInlineMeasure:
		return "InlineMeasure"
	case KindProject:
		return "Project"
	case KindSort:
		return "Sort"
	case KindLimit:
		return "Limit"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Node is one operator of the logical tree. Each node owns its children
// exclusively; the tree is immutable once the planner returns it.
type Node interface {
	Kind() NodeKind
	Children() []Node

	// node keeps the kind set closed to this package.
	node()
}

// MeasureRef is a measure resolved against the graph.
type MeasureRef struct {
	Measure report.Measure
	Entity  string
	Columns []graph.ColumnRef
}

// Scan reads one entity.
type Scan struct {
	Entity graph.EntityMeta
}

func (*Scan) Kind() NodeKind   { return KindScan }
func (*Scan) Children() []Node { return nil }
func (*Scan) node()            {}

// Filter applies predicates to its input. Predicates pushed down to a
// scan touch only that scan's entity; predicates placed higher touch
// derived columns.
type Filter struct {
	Input   Node
	Filters []report.Filter
	Entity  string // owning entity for pushed-down filters, empty above joins
}

func (*Filter) Kind() NodeKind     { return KindFilter }
func (f *Filter) Children() []Node { return []Node{f.Input} }
func (*Filter) node()              {}

// Join connects two subtrees along one relationship hop. The order is
// correctness-only; the physical stage picks the efficient order.
type Join struct {
	Left  Node
	Right Node
	Hop   graph.Hop
}

func (*Join) Kind() NodeKind     { return KindJoin }
func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }
func (*Join) node()              {}

// Aggregate groups its input and evaluates the measure list.
type Aggregate struct {
	Input    Node
	GroupBy  []graph.ColumnRef
	Measures []MeasureRef
}

func (*Aggregate) Kind() NodeKind     { return KindAggregate }
func (a *Aggregate) Children() []Node { return []Node{a.Input} }
func (*Aggregate) node()              {}

// TimeMeasure wraps the subtree computing a time-shifted measure.
type TimeMeasure struct {
	Input    Node
	Measure  MeasureRef
	Modifier report.TimeModifier
}

func (*TimeMeasure) Kind() NodeKind     { return KindTimeMeasure }
func (t *TimeMeasure) Children() []Node { return []Node{t.Input} }
func (*TimeMeasure) node()              {}

// DrillPath resolves calendar-hierarchy navigation for a dimension.
type DrillPath struct {
	Input     Node
	Dimension string
	Entity    string
	Levels    []graph.ColumnRef
}

func (*DrillPath) Kind() NodeKind     { return KindDrillPath }
func (d *DrillPath) Children() []Node { return []Node{d.Input} }
func (*DrillPath) node()              {}

// InlineMeasure adds a derived column compiled from a user expression.
type InlineMeasure struct {
	Input    Node
	Compiled *expr.Compiled
	Columns  []graph.ColumnRef
}

func (*InlineMeasure) Kind() NodeKind     { return KindInlineMeasure }
func (i *InlineMeasure) Children() []Node { return []Node{i.Input} }
func (*InlineMeasure) node()              {}

// ProjectedColumn is one output column of the report.
type ProjectedColumn struct {
	Name   string
	Column *graph.ColumnRef // nil for measures and inline expressions
}

// Project selects the report's output columns.
type Project struct {
	Input   Node
	Columns []ProjectedColumn
}

func (*Project) Kind() NodeKind     { return KindProject }
func (p *Project) Children() []Node { return []Node{p.Input} }
func (*Project) node()              {}

// Sort orders the output.
type Sort struct {
	Input Node
	Keys  []report.SortKey
}

func (*Sort) Kind() NodeKind     { return KindSort }
func (s *Sort) Children() []Node { return []Node{s.Input} }
func (*Sort) node()              {}

// Limit caps the output.
type Limit struct {
	Input  Node
	Count  int64
	Offset int64
}

func (*Limit) Kind() NodeKind     { return KindLimit }
func (l *Limit) Children() []Node { return []Node{l.Input} }
func (*Limit) node()              {}

// Plan is the logical plan: one rooted tree plus the resolved facts the
// physical stage needs without re-walking the tree.
type Plan struct {
	Root Node

	// Entities in first-mention order, then any bridge entities the
	// join path routes through; the physical join order must be a
	// permutation of exactly this set.
	Entities []string

	// Path is the safe join path connecting Entities (empty for a
	// single entity).
	Path graph.Path

	// Measures resolved against the graph, report order.
	Measures []MeasureRef

	// GroupBy columns in report order.
	GroupBy []graph.ColumnRef

	// EntityFilters are the predicates pushed down per entity.
	EntityFilters map[string][]report.Filter

	// PostFilters apply above aggregation (inline-measure predicates).
	PostFilters []report.Filter

	// Inline expressions in report order.
	Inline []*expr.Compiled
}

// TimeMeasures returns the resolved measures carrying a time modifier,
// report order.
func (p *Plan) TimeMeasures() []MeasureRef {
	var out []MeasureRef
	for _, m := range p.Measures {
		if m.Measure.Time != nil {
			out = append(out, m)
		}
	}
	return out
}

// Describe renders the tree one operator per line, children indented.
func (p *Plan) Describe() string {
	var sb strings.Builder
	describeNode(&sb, p.Root, 0)
	return sb.String()
}

func describeNode(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(nodeLabel(n))
	sb.WriteString("\n")
	for _, c := range n.Children() {
		describeNode(sb, c, depth+1)
	}
}

func nodeLabel(n Node) string {
	switch v := n.(type) {
	case *Scan:
		return fmt.Sprintf("Scan(%s)", v.Entity.Name)
	case *Filter:
		return fmt.Sprintf("Filter(%d predicates)", len(v.Filters))
	case *Join:
		return fmt.Sprintf("Join(%s->%s %s)", v.Hop.From, v.Hop.To, v.Hop.Rel.Cardinality)
	case *Aggregate:
		return fmt.Sprintf("Aggregate(group=%d, measures=%d)", len(v.GroupBy), len(v.Measures))
	case *TimeMeasure:
		return fmt.Sprintf("TimeMeasure(%s %s)", v.Measure.Measure.Name, v.Modifier.Kind)
	case *DrillPath:
		return fmt.Sprintf("DrillPath(%s, levels=%d)", v.Dimension, len(v.Levels))
	case *InlineMeasure:
		return fmt.Sprintf("InlineMeasure(%s)", v.Compiled.Name)
	case *Project:
		return fmt.Sprintf("Project(%d columns)", len(v.Columns))
	case *Sort:
		return fmt.Sprintf("Sort(%d keys)", len(v.Keys))
	case *Limit:
		return fmt.Sprintf("Limit(%d)", v.Count)
	default:
		return n.Kind().String()
	}
}
