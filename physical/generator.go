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
	"context"

	"github.com/scylladb/go-set/strset"
	"go.uber.org/zap"

	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logging"
	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
)

// Options bounds the candidate search.
type Options struct {
	// TopKJoinOrders keeps the K best-ranked join orders per plan.
	TopKJoinOrders int
	// CandidateCap caps the surviving combinations; lowest-ranked are
	// discarded first.
	CandidateCap int
	// ExhaustiveLimit is the entity count up to which join orders are
	// permuted exhaustively.
	ExhaustiveLimit int
}

func DefaultOptions() Options {
	return Options{
		TopKJoinOrders:  3,
		CandidateCap:    20,
		ExhaustiveLimit: 4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopKJoinOrders <= 0 {
		o.TopKJoinOrders = d.TopKJoinOrders
	}
	if o.CandidateCap <= 0 {
		o.CandidateCap = d.CandidateCap
	}
	if o.ExhaustiveLimit <= 0 {
		o.ExhaustiveLimit = d.ExhaustiveLimit
	}
	return o
}

// Generator produces the bounded, deduplicated, stably ordered
// candidate set for a logical plan. Generation never fails for a
// well-formed logical plan except on dialect exclusion or deadline.
type Generator struct {
	opts   Options
	logger *zap.SugaredLogger
}

func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts:   opts.withDefaults(),
		logger: logging.GetLogger("candidate-generator"),
	}
}

// aggDim is the aggregation-placement choice axis of one measure.
type aggDim struct {
	measure string
	choices []AggStrategy
}

// timeDim is the time-strategy choice axis of one time measure.
type timeDim struct {
	measure string
	choices []TimeStrategy
}

// Generate runs the three stages: per-dimension enumeration, composed
// pruning, lazy materialization. Identical inputs yield an identical
// candidate list in identical order.
func (gen *Generator) Generate(ctx context.Context, lp *logical.Plan, g graph.Graph, caps sqlbuild.Capabilities) ([]*Plan, error) {
	// Stage A: enumerate each choice axis independently.
	orders := rankJoinOrders(lp.Entities, g, gen.opts.TopKJoinOrders, gen.opts.ExhaustiveLimit)
	if len(orders) == 0 {
		// No connectivity-valid order exists; the selector will surface
		// this as NoCandidates.
		return nil, nil
	}

	aggDims := gen.aggregationDims(lp, g, caps)
	timeDims, err := gen.timeDims(lp, caps)
	if err != nil {
		return nil, err
	}

	// Stage B: compose the Cartesian product in rank order, pruning
	// incompatible combinations, deduplicating, stopping at the cap.
	sizes := make([]int, 0, 1+len(aggDims)+len(timeDims))
	sizes = append(sizes, len(orders))
	for _, d := range aggDims {
		sizes = append(sizes, len(d.choices))
	}
	for _, d := range timeDims {
		sizes = append(sizes, len(d.choices))
	}

	var out []*Plan
	seen := strset.New()
	idx := make([]int, len(sizes))
	rejected := 0

	for {
		if ctx.Err() != nil {
			return nil, core.NewPlanError(core.KindTimeout,
				"candidate generation interrupted: %s", ctx.Err())
		}

		candidate := gen.materialize(lp, orders, aggDims, timeDims, idx, len(out))
		if compatible(candidate) {
			sig := candidate.signature()
			if !seen.Has(sig) {
				seen.Add(sig)
				out = append(out, candidate)
				if len(out) >= gen.opts.CandidateCap {
					break
				}
			}
		} else {
			rejected++
		}

		if !advance(idx, sizes) {
			break
		}
	}

	gen.logger.Debugw("candidates generated",
		"entities", len(lp.Entities),
		"orders", len(orders),
		"candidates", len(out),
		"rejected", rejected)
	return out, nil
}

func (gen *Generator) aggregationDims(lp *logical.Plan, g graph.Graph, caps sqlbuild.Capabilities) []aggDim {
	dims := make([]aggDim, 0, len(lp.Measures))
	crossEntity := len(lp.Entities) > 1
	for _, m := range lp.Measures {
		name := m.Measure.Name
		if !crossEntity || !caps.CommonTableExpressions {
			// Pre-aggregation needs a join to shrink and a CTE to live in.
			dims = append(dims, aggDim{measure: name, choices: []AggStrategy{PostAggregate}})
			continue
		}
		if g.AggregationHint(m.Entity) == graph.AggHintPreAggregate {
			dims = append(dims, aggDim{measure: name, choices: []AggStrategy{PreAggregate, PostAggregate}})
		} else {
			dims = append(dims, aggDim{measure: name, choices: []AggStrategy{PostAggregate, PreAggregate}})
		}
	}
	return dims
}

func (gen *Generator) timeDims(lp *logical.Plan, caps sqlbuild.Capabilities) ([]timeDim, error) {
	var dims []timeDim
	for _, m := range lp.TimeMeasures() {
		modifier := *m.Measure.Time
		var choices []TimeStrategy
		if caps.CommonTableExpressions {
			choices = append(choices, TimeSelfJoin)
		}
		if caps.WindowFunctions {
			choices = append(choices, TimeWindowFunction)
		}
		if modifier.Cumulative() && !modifier.Trailing() {
			choices = append(choices, TimeFilterBased)
		}
		if len(choices) == 0 {
			return nil, core.NewPlanError(core.KindIncompatibleDialectFeature,
				"dialect '%s' supports no strategy for time measure '%s' (%s)",
				caps.Dialect, m.Measure.Name, modifier.Kind)
		}
		dims = append(dims, timeDim{measure: m.Measure.Name, choices: choices})
	}
	return dims, nil
}

// materialize builds the candidate at one index vector. Stage C is
// lazy: cost and the structural form stay uncomputed until accessed.
func (gen *Generator) materialize(lp *logical.Plan, orders [][]string, aggDims []aggDim, timeDims []timeDim, idx []int, seq int) *Plan {
	var order []string
	if len(orders) > 0 {
		order = orders[idx[0]]
	}
	agg := make(map[string]AggStrategy, len(aggDims))
	for i, d := range aggDims {
		agg[d.measure] = d.choices[idx[1+i]]
	}
	times := make(map[string]TimeStrategy, len(timeDims))
	for i, d := range timeDims {
		times[d.measure] = d.choices[idx[1+len(aggDims)+i]]
	}
	return &Plan{
		logical:        lp,
		joinOrder:      order,
		aggStrategies:  agg,
		timeStrategies: times,
		seq:            seq,
	}
}

// compatible rejects strategy combinations that cannot share one
// structural scope, e.g. a window-function time calculation over a
// measure that was already collapsed by pre-aggregation.
func compatible(p *Plan) bool {
	for measure, ts := range p.timeStrategies {
		if ts != TimeWindowFunction {
			continue
		}
		if agg, ok := p.aggStrategies[measure]; ok && agg == PreAggregate {
			return false
		}
	}
	return true
}

// advance increments the odometer, rightmost digit fastest, so earlier
// axes (and higher-ranked choices) dominate enumeration order.
func advance(idx []int, sizes []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		if sizes[i] == 0 {
			return false
		}
		idx[i]++
		if idx[i] < sizes[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}
