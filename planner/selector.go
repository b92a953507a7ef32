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

package planner

import (
	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/physical"
)

// SelectMinCost picks the cheapest scored candidate. Ties go to the
// earliest-generated candidate regardless of slice order, so the result
// is stable even when candidates were costed concurrently.
func SelectMinCost(candidates []*physical.Plan, estimate func(*physical.Plan) float64) (*physical.Plan, error) {
	if len(candidates) == 0 {
		return nil, core.NewPlanError(core.KindNoCandidates,
			"no executable candidate for this report and dialect")
	}
	best := candidates[0]
	bestCost := estimate(best)
	for _, c := range candidates[1:] {
		cost := estimate(c)
		if cost < bestCost || (cost == bestCost && c.Sequence() < best.Sequence()) {
			best, bestCost = c, cost
		}
	}
	return best, nil
}

// Selection is the planner's result: the winning candidate plus the
// numbers a caller needs to explain the choice.
type Selection struct {
	Plan       *physical.Plan
	Cost       float64
	Candidates int
	Logical    string // rendered logical tree, for diagnostics
}
