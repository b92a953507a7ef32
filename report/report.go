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

// Package report holds the already-lowered, validated report definition
// consumed by the planner. A front end out of this module's scope parses
// and lowers user input into these values.
package report

// AggFunc is the aggregation applied to a measure column.
type AggFunc int

const (
	AggSum AggFunc = iota
	AggCount
	AggCountDistinct
	AggMin
	AggMax
	AggAvg
)

func (f AggFunc) String() string {
	switch f {
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	case AggCountDistinct:
		return "COUNT_DISTINCT"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggAvg:
		return "AVG"
	default:
		return "UNKNOWN"
	}
}

// TimeModifierKind enumerates the supported time shifts.
type TimeModifierKind int

const (
	TimeYearToDate TimeModifierKind = iota
	TimeQuarterToDate
	TimeMonthToDate
	TimePriorPeriod
	TimePriorYear
	TimeRolling
)

func (k TimeModifierKind) String() string {
	switch k {
	case TimeYearToDate:
		return "YTD"
	case TimeQuarterToDate:
		return "QTD"
	case TimeMonthToDate:
		return "MTD"
	case TimePriorPeriod:
		return "PRIOR_PERIOD"
	case TimePriorYear:
		return "PRIOR_YEAR"
	case TimeRolling:
		return "ROLLING"
	default:
		return "UNKNOWN"
	}
}

// TimeModifier shifts a measure relative to a time offset or cumulative
// window. WindowSize/WindowUnit are set only for TimeRolling.
type TimeModifier struct {
	Kind       TimeModifierKind
	WindowSize int
	WindowUnit string
}

// Cumulative reports whether the modifier is a period-to-date window.
func (m TimeModifier) Cumulative() bool {
	switch m.Kind {
	case TimeYearToDate, TimeQuarterToDate, TimeMonthToDate:
		return true
	}
	return false
}

// Trailing reports whether the modifier requires a trailing window.
func (m TimeModifier) Trailing() bool {
	return m.Kind == TimeRolling
}

// Measure selects a graph measure by name, with an aggregation and an
// optional time shift.
type Measure struct {
	Name string
	Agg  AggFunc
	Time *TimeModifier
}

// Dimension selects a group-by dimension by name. Drill, when set, names
// calendar-hierarchy levels to navigate (e.g. year, quarter, month).
type Dimension struct {
	Name  string
	Drill []string
}

// FilterOp is a predicate operator on a dimension.
type FilterOp int

const (
	FilterEq FilterOp = iota
	FilterNe
	FilterLt
	FilterLe
	FilterGt
	FilterGe
	FilterIn
	FilterLike
)

func (op FilterOp) String() string {
	switch op {
	case FilterEq:
		return "="
	case FilterNe:
		return "!="
	case FilterLt:
		return "<"
	case FilterLe:
		return "<="
	case FilterGt:
		return ">"
	case FilterGe:
		return ">="
	case FilterIn:
		return "IN"
	case FilterLike:
		return "LIKE"
	default:
		return "?"
	}
}

// Filter restricts the report by a dimension or inline-measure predicate.
// Selectivity, when positive, is the fraction of rows expected to pass;
// zero means unknown and the estimator falls back to its default.
type Filter struct {
	Dimension   string
	Op          FilterOp
	Value       interface{}
	Selectivity float64
}

// InlineMeasure is a user-supplied derived expression. DependsOn lists
// the measure names (graph or inline) the expression reads.
type InlineMeasure struct {
	Name       string
	Expression string
	DependsOn  []string
}

// SortKey orders the final result by an output column.
type SortKey struct {
	Column string
	Desc   bool
}

// Limit caps the result set.
type Limit struct {
	Count  int64
	Offset int64
}

// Report is the full lowered report definition.
type Report struct {
	Name       string
	Measures   []Measure
	Dimensions []Dimension
	Filters    []Filter
	Inline     []InlineMeasure
	Sort       []SortKey
	Limit      *Limit
}
