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

// Package physical enumerates concrete strategy assignments for one
// logical plan and selects among them by cost.
package physical

// AggStrategy places a measure's GROUP BY relative to the joins.
type AggStrategy int

const (
	// PreAggregate groups the owning entity before joining, shrinking
	// join input.
	PreAggregate AggStrategy = iota
	// PostAggregate joins raw rows and groups once at the end.
	PostAggregate
)

func (s AggStrategy) String() string {
	switch s {
	case PreAggregate:
		return "pre-aggregate"
	case PostAggregate:
		return "post-aggregate"
	default:
		return "unknown"
	}
}

// TimeStrategy realizes a time-shifted measure.
type TimeStrategy int

const (
	// TimeSelfJoin computes the shifted period in a CTE joined back on
	// the group keys.
	TimeSelfJoin TimeStrategy = iota
	// TimeWindowFunction uses a window frame over the ordered periods.
	TimeWindowFunction
	// TimeFilterBased widens the date predicate; only valid for
	// cumulative period-to-date measures without a trailing window.
	TimeFilterBased
)

func (s TimeStrategy) String() string {
	switch s {
	case TimeSelfJoin:
		return "self-join"
	case TimeWindowFunction:
		return "window-function"
	case TimeFilterBased:
		return "filter-based"
	default:
		return "unknown"
	}
}
