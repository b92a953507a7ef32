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

package physical

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
)

// Plan is one concrete strategy assignment for a logical plan: an
// ordered join sequence, aggregation placement per measure and a time
// strategy per time measure. Plans are value objects created per
// planning call; cost and the structural SQL-builder form are computed
// at most once and cached.
type Plan struct {
	logical        *logical.Plan
	joinOrder      []string
	aggStrategies  map[string]AggStrategy
	timeStrategies map[string]TimeStrategy
	seq            int

	costOnce sync.Once
	cost     float64

	opsOnce sync.Once
	ops     []sqlbuild.Op
}

// Logical returns the plan this candidate was derived from.
func (p *Plan) Logical() *logical.Plan {
	return p.logical
}

// JoinOrder returns the join sequence, a permutation of exactly the
// logical plan's entities.
func (p *Plan) JoinOrder() []string {
	out := make([]string, len(p.joinOrder))
	copy(out, p.joinOrder)
	return out
}

// AggStrategy returns the aggregation placement chosen for a measure.
func (p *Plan) AggStrategy(measure string) (AggStrategy, bool) {
	s, ok := p.aggStrategies[measure]
	return s, ok
}

// TimeStrategy returns the time strategy chosen for a time measure.
func (p *Plan) TimeStrategy(measure string) (TimeStrategy, bool) {
	s, ok := p.timeStrategies[measure]
	return s, ok
}

// Sequence is the generation order of the candidate; the selector uses
// it as the deterministic tie-break.
func (p *Plan) Sequence() int {
	return p.seq
}

// MemoCost runs compute at most once for this candidate and returns the
// cached value afterwards. Safe for concurrent readers.
func (p *Plan) MemoCost(compute func() float64) float64 {
	p.costOnce.Do(func() {
		p.cost = compute()
	})
	return p.cost
}

// BuildOps returns the structural SQL-builder form, computed on first
// access and cached.
func (p *Plan) BuildOps() []sqlbuild.Op {
	p.opsOnce.Do(func() {
		p.ops = p.translate()
	})
	return p.ops
}

// signature identifies the strategy assignment for deduplication.
func (p *Plan) signature() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(p.joinOrder, ","))
	sb.WriteString("|")
	names := make([]string, 0, len(p.aggStrategies))
	for name := range p.aggStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%s;", name, p.aggStrategies[name])
	}
	sb.WriteString("|")
	names = names[:0]
	for name := range p.timeStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%s;", name, p.timeStrategies[name])
	}
	return sb.String()
}

// Describe summarizes the strategy assignment for logs and tests.
func (p *Plan) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "join order: %s\n", strings.Join(p.joinOrder, " -> "))
	for _, m := range p.logical.Measures {
		if s, ok := p.aggStrategies[m.Measure.Name]; ok {
			fmt.Fprintf(&sb, "measure %s: %s", m.Measure.Name, s)
			if ts, ok := p.timeStrategies[m.Measure.Name]; ok {
				fmt.Fprintf(&sb, ", time %s", ts)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
