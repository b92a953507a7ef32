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

// Package sqlbuild defines the structural operation sequence the
// external SQL builder consumes. The planner core never renders dialect
// SQL text; a selected plan exposes its structure only in these terms.
package sqlbuild

// OpKind is the closed set of structural operations.
type OpKind int

const (
	OpAddCTE OpKind = iota
	OpFrom
	OpJoin
	OpWhere
	OpGroupBy
	OpSelect
	OpOrderBy
	OpLimit
)

func (k OpKind) String() string {
	switch k {
	case OpAddCTE:
		return "AddCTE"
	case OpFrom:
		return "From"
	case OpJoin:
		return "Join"
	case OpWhere:
		return "Where"
	case OpGroupBy:
		return "GroupBy"
	case OpSelect:
		return "Select"
	case OpOrderBy:
		return "OrderBy"
	case OpLimit:
		return "Limit"
	default:
		return "Unknown"
	}
}

// Op is one structural operation. The set of implementations is closed.
type Op interface {
	Kind() OpKind
	op()
}

// Column names a column on a table or CTE.
type Column struct {
	Table  string
	Column string
}

func (c Column) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// AddCTE introduces a named common table expression built from its own
// op sequence.
type AddCTE struct {
	Name string
	Ops  []Op
}

func (*AddCTE) Kind() OpKind { return OpAddCTE }
func (*AddCTE) op()          {}

// From sets the base source.
type From struct {
	Table string
	Alias string
}

func (*From) Kind() OpKind { return OpFrom }
func (*From) op()          {}

// JoinType is the SQL join flavor.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "?"
	}
}

// Join adds one join against a table or CTE with an equi-condition.
type Join struct {
	Type  JoinType
	Table string
	Alias string
	Left  Column
	Right Column
}

func (*Join) Kind() OpKind { return OpJoin }
func (*Join) op()          {}

// Where adds one predicate.
type Where struct {
	Column Column
	Op     string
	Value  interface{}
}

func (*Where) Kind() OpKind { return OpWhere }
func (*Where) op()          {}

// GroupBy sets the grouping columns.
type GroupBy struct {
	Columns []Column
}

func (*GroupBy) Kind() OpKind { return OpGroupBy }
func (*GroupBy) op()          {}

// ProjectionKind classifies a select item.
type ProjectionKind int

const (
	ProjectColumn ProjectionKind = iota
	ProjectAggregate
	ProjectWindow
	ProjectExpression
)

// WindowSpec describes a window-function projection structurally.
type WindowSpec struct {
	PartitionBy []Column
	OrderBy     []Column
	Frame       string
}

// Projection is one select item.
type Projection struct {
	Kind       ProjectionKind
	Column     Column
	Aggregate  string
	Expression string
	Alias      string
	Window     *WindowSpec
}

// Select sets the projection list.
type Select struct {
	Items []Projection
}

func (*Select) Kind() OpKind { return OpSelect }
func (*Select) op()          {}

// OrderKey is one sort key of the final result.
type OrderKey struct {
	Column string
	Desc   bool
}

// OrderBy sets the result ordering.
type OrderBy struct {
	Keys []OrderKey
}

func (*OrderBy) Kind() OpKind { return OpOrderBy }
func (*OrderBy) op()          {}

// Limit caps the result.
type Limit struct {
	Count  int64
	Offset int64
}

func (*Limit) Kind() OpKind { return OpLimit }
func (*Limit) op()          {}
