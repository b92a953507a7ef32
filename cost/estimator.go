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

package cost

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logging"
	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/physical"
)

const (
	// DefaultFilterSelectivity is assumed when a filter carries no
	// selectivity estimate.
	DefaultFilterSelectivity = 0.1
	// DefaultGroupByFraction estimates group count as a fraction of the
	// input when no distinct statistics exist.
	DefaultGroupByFraction = 0.1

	defaultFanOut = 10.0
)

// factors are the raw sub-scores before weighting, in weight order.
type factors struct {
	intermediateSize     float64
	rowsProcessed        float64
	joinComplexity       float64
	aggregationCost      float64
	structuralComplexity float64
}

// Estimator scores candidates. It holds no per-call state and is safe
// for concurrent use.
type Estimator struct {
	weights Weights
	logger  *zap.SugaredLogger

	// missingStats throttles the warning spam a statistics-free snapshot
	// would otherwise produce on every candidate.
	missingStats *logging.ThrottledLogger
}

func NewEstimator(weights Weights) *Estimator {
	logger := logging.GetLogger("cost-estimator")
	return &Estimator{
		weights:      weights,
		logger:       logger,
		missingStats: logging.NewThrottledLogger("cost-estimator", logger, 30*time.Second),
	}
}

// Estimate returns the candidate's cost, computing it at most once per
// candidate. Identical candidate and snapshot always yield an identical
// score.
func (e *Estimator) Estimate(p *physical.Plan, g graph.Graph) float64 {
	return p.MemoCost(func() float64 {
		f := e.factors(p, g)
		cost := e.weights.IntermediateSize*scaled(f.intermediateSize) +
			e.weights.RowsProcessed*scaled(f.rowsProcessed) +
			e.weights.JoinComplexity*f.joinComplexity +
			e.weights.AggregationCost*scaled(f.aggregationCost) +
			e.weights.StructuralComplexity*f.structuralComplexity
		e.logger.Debugw("candidate scored",
			"sequence", p.Sequence(),
			"intermediate", f.intermediateSize,
			"rows", f.rowsProcessed,
			"cost", cost)
		return cost
	})
}

// scaled compresses row counts logarithmically so a size factor cannot
// drown the complexity factors on large snapshots.
func scaled(rows float64) float64 {
	if rows <= 0 {
		return 0
	}
	return math.Log10(1 + rows)
}

func (e *Estimator) factors(p *physical.Plan, g graph.Graph) factors {
	lp := p.Logical()
	var f factors

	preAgg := preAggregatedEntities(p)

	order := p.JoinOrder()
	if len(order) == 0 {
		return f
	}

	// Simulate the join pipeline left to right, tracking the running
	// intermediate size and its peak.
	current := e.effectiveRows(order[0], p, g, preAgg)
	f.rowsProcessed = e.scanRows(order[0], lp, g, preAgg)
	peak := current

	for i := 1; i < len(order); i++ {
		entity := order[i]
		next := e.effectiveRows(entity, p, g, preAgg)
		f.rowsProcessed += e.scanRows(entity, lp, g, preAgg)

		hop, ok := pathHop(lp.Path, entity, order[:i])
		if !ok {
			// Disconnected orders never leave the generator; treat the
			// join as a cross product so a bug surfaces as a huge score.
			current *= math.Max(next, 1)
			f.joinComplexity += 3
			continue
		}

		f.joinComplexity++
		switch {
		case preAgg[entity] || hop.Rel.Cardinality == graph.OneToOne:
			// Grouped or unique right side: one row per key.
			current = math.Max(current, next)
		case hop.Rel.Cardinality == graph.ManyToOne:
			// Dimension lookup keeps the left row count.
		case hop.Rel.Cardinality == graph.OneToMany:
			// Fan-out multiplies whatever survived the left side, so a
			// selective filter there shrinks the joined result too.
			current *= fanOut(hop.Rel, e.rawRows(hop.From, g), e.rawRows(entity, g))
		case hop.Rel.Cardinality == graph.ManyToMany:
			current *= fanOut(hop.Rel, e.rawRows(hop.From, g), e.rawRows(entity, g))
			f.joinComplexity += 2
		}

		f.rowsProcessed += current
		if current > peak {
			peak = current
		}
	}
	f.intermediateSize = peak

	// Aggregation work: pre-aggregation pays per-owner CTE passes, the
	// final GROUP BY pays one pass over the intermediate result.
	seenOwner := make(map[string]bool)
	finalPass := false
	for _, m := range lp.Measures {
		s, ok := p.AggStrategy(m.Measure.Name)
		if ok && s == physical.PreAggregate {
			if !seenOwner[m.Entity] {
				seenOwner[m.Entity] = true
				f.aggregationCost += e.filteredRows(m.Entity, lp, g)
			}
			continue
		}
		finalPass = true
	}
	if finalPass || len(lp.GroupBy) > 0 {
		f.aggregationCost += current + e.groupCount(lp.GroupBy, g, current)
	}

	// Structure: every CTE and window projection the builder must emit.
	f.structuralComplexity = float64(len(seenOwner))
	for _, m := range lp.TimeMeasures() {
		ts, ok := p.TimeStrategy(m.Measure.Name)
		if !ok {
			continue
		}
		switch ts {
		case physical.TimeSelfJoin:
			f.structuralComplexity += 2 // CTE plus the extra join
			f.aggregationCost += e.filteredRows(m.Entity, lp, g)
		case physical.TimeWindowFunction:
			f.structuralComplexity++
			f.rowsProcessed += current // ordered pass over the result
		}
	}
	return f
}

// effectiveRows is the row count an entity contributes to the join: raw
// rows shrunk by its pushed-down filters, collapsed to group cardinality
// when the entity is pre-aggregated.
func (e *Estimator) effectiveRows(entity string, p *physical.Plan, g graph.Graph, preAgg map[string]bool) float64 {
	lp := p.Logical()
	rows := e.filteredRows(entity, lp, g)
	if !preAgg[entity] {
		return rows
	}
	groups := e.entityGroupCount(entity, lp, g)
	return math.Min(rows, groups)
}

// scanRows is what reading the entity costs: pre-aggregated entities are
// scanned in full inside their CTE.
func (e *Estimator) scanRows(entity string, lp *logical.Plan, g graph.Graph, preAgg map[string]bool) float64 {
	if preAgg[entity] {
		return e.rawRows(entity, g)
	}
	return e.filteredRows(entity, lp, g)
}

func (e *Estimator) rawRows(entity string, g graph.Graph) float64 {
	meta, ok := g.Entity(entity)
	if !ok {
		e.missingStats.Warningf("entity '%s' is absent from the snapshot, assuming %v rows",
			entity, graph.SizeUnknown.DefaultRows())
		return graph.SizeUnknown.DefaultRows()
	}
	if meta.RowCount == 0 && meta.Size == graph.SizeUnknown {
		e.missingStats.Warningf("entity '%s' has no row statistics, assuming %v rows",
			entity, meta.Rows())
	}
	return meta.Rows()
}

func (e *Estimator) filteredRows(entity string, lp *logical.Plan, g graph.Graph) float64 {
	rows := e.rawRows(entity, g)
	for _, f := range lp.EntityFilters[entity] {
		sel := f.Selectivity
		if sel <= 0 || sel > 1 {
			sel = DefaultFilterSelectivity
		}
		rows *= sel
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// entityGroupCount estimates how many rows survive pre-aggregating one
// entity: the distinct product of its join keys and local group columns.
func (e *Estimator) entityGroupCount(entity string, lp *logical.Plan, g graph.Graph) float64 {
	rows := e.rawRows(entity, g)
	product := 1.0
	known := false

	consider := func(column string) {
		meta, ok := g.Column(entity, column)
		if !ok || meta.DistinctCount <= 0 {
			return
		}
		product *= float64(meta.DistinctCount)
		known = true
	}
	for _, hop := range lp.Path {
		if hop.From == entity {
			consider(hop.Rel.FromColumn)
		}
		if hop.To == entity {
			consider(hop.Rel.ToColumn)
		}
	}
	for _, c := range lp.GroupBy {
		if c.Entity == entity {
			consider(c.Column)
		}
	}
	if !known {
		return math.Max(rows*DefaultGroupByFraction, 1)
	}
	return math.Min(product, rows)
}

// groupCount estimates the final result cardinality from the group-by
// columns' distinct statistics.
func (e *Estimator) groupCount(groupBy []graph.ColumnRef, g graph.Graph, input float64) float64 {
	product := 1.0
	known := false
	for _, c := range groupBy {
		meta, ok := g.Column(c.Entity, c.Column)
		if !ok || meta.DistinctCount <= 0 {
			continue
		}
		product *= float64(meta.DistinctCount)
		known = true
	}
	if !known {
		return math.Max(input*DefaultGroupByFraction, 1)
	}
	return math.Min(product, input)
}

func preAggregatedEntities(p *physical.Plan) map[string]bool {
	out := make(map[string]bool)
	for _, m := range p.Logical().Measures {
		if s, ok := p.AggStrategy(m.Measure.Name); ok && s == physical.PreAggregate {
			out[m.Entity] = true
		}
	}
	return out
}

func fanOut(rel graph.RelationshipMeta, oneSide, manySide float64) float64 {
	if rel.AvgFanOut > 0 {
		return rel.AvgFanOut
	}
	if oneSide > 0 && manySide > oneSide {
		return manySide / oneSide
	}
	return defaultFanOut
}

// pathHop finds the hop connecting entity to the joined prefix,
// oriented prefix→entity.
func pathHop(path graph.Path, entity string, prefix []string) (graph.Hop, bool) {
	inPrefix := func(name string) bool {
		for _, p := range prefix {
			if p == name {
				return true
			}
		}
		return false
	}
	for _, hop := range path {
		if hop.To == entity && inPrefix(hop.From) {
			return hop, true
		}
		if hop.From == entity && inPrefix(hop.To) {
			return graph.Hop{From: hop.To, To: hop.From, Rel: hop.Rel.Invert()}, true
		}
	}
	return graph.Hop{}, false
}
