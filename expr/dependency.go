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

package expr

import (
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/report"
)

// CheckCycles rejects inline measures that depend, directly or
// transitively, on themselves. Only edges between inline-measure names
// matter; dependencies on graph measures are leaves.
//
// DFS with a recursion-stack marker; the stack is kept explicitly so the
// error can name the cycle.
func CheckCycles(measures []report.InlineMeasure) error {
	edges := make(map[string][]string, len(measures))
	names := make([]string, 0, len(measures))
	for _, m := range measures {
		if _, ok := edges[m.Name]; !ok {
			names = append(names, m.Name)
		}
		edges[m.Name] = m.DependsOn
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the recursion stack
		black = 2 // fully explored
	)
	colors := make(map[string]int, len(edges))
	trail := arraystack.New()

	var visit func(name string) error
	visit = func(name string) error {
		colors[name] = gray
		trail.Push(name)
		for _, dep := range edges[name] {
			if _, inline := edges[dep]; !inline {
				continue
			}
			switch colors[dep] {
			case gray:
				return core.NewPlanError(core.KindCyclicInlineMeasure,
					"inline measure '%s' depends on itself via %s", dep, cycleTrail(trail, dep))
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		trail.Pop()
		colors[name] = black
		return nil
	}

	for _, name := range names {
		if colors[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleTrail renders the recursion stack from the first occurrence of
// start, e.g. "a -> b -> a".
func cycleTrail(trail *arraystack.Stack, start string) string {
	values := trail.Values() // top first
	var chain []string
	for i := len(values) - 1; i >= 0; i-- {
		name := values[i].(string)
		if len(chain) == 0 && name != start {
			continue
		}
		chain = append(chain, name)
	}
	chain = append(chain, start)
	return strings.Join(chain, " -> ")
}
