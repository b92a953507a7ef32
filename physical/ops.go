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

	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/report"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
)

// translate derives the structural SQL-builder form from the strategy
// assignment. It is pure: everything it reads lives on the plan.
func (p *Plan) translate() []sqlbuild.Op {
	lp := p.logical
	var ops []sqlbuild.Op

	preAgg := make(map[string][]logical.MeasureRef)
	for _, m := range lp.Measures {
		if s, ok := p.aggStrategies[m.Measure.Name]; ok && s == PreAggregate {
			preAgg[m.Entity] = append(preAgg[m.Entity], m)
		}
	}

	source := func(entity string) string {
		if _, ok := preAgg[entity]; ok {
			return "agg_" + entity
		}
		return entity
	}

	// Pre-aggregation CTEs, join-order sequence so output is stable.
	for _, entity := range p.joinOrder {
		measures, ok := preAgg[entity]
		if !ok {
			continue
		}
		ops = append(ops, p.preAggCTE(entity, measures))
	}

	// Self-join CTEs for time measures, measure order.
	for _, m := range lp.TimeMeasures() {
		if ts, ok := p.timeStrategies[m.Measure.Name]; ok && ts == TimeSelfJoin {
			ops = append(ops, p.shiftCTE(m))
		}
	}

	if len(p.joinOrder) > 0 {
		base := p.joinOrder[0]
		ops = append(ops, &sqlbuild.From{Table: source(base), Alias: base})
	}

	for i := 1; i < len(p.joinOrder); i++ {
		entity := p.joinOrder[i]
		hop, ok := connectingHop(lp.Path, entity, p.joinOrder[:i])
		if !ok {
			continue
		}
		left := sqlbuild.Column{Table: hop.From, Column: hop.Rel.FromColumn}
		right := sqlbuild.Column{Table: entity, Column: hop.Rel.ToColumn}
		ops = append(ops, &sqlbuild.Join{
			Type:  sqlbuild.JoinInner,
			Table: source(entity),
			Alias: entity,
			Left:  left,
			Right: right,
		})
	}

	for _, m := range lp.TimeMeasures() {
		if ts, ok := p.timeStrategies[m.Measure.Name]; ok && ts == TimeSelfJoin {
			name := "shift_" + m.Measure.Name
			key := p.shiftJoinKey(m)
			ops = append(ops, &sqlbuild.Join{
				Type:  sqlbuild.JoinLeft,
				Table: name,
				Alias: name,
				Left:  sqlbuild.Column{Table: key.Entity, Column: key.Column},
				Right: sqlbuild.Column{Table: name, Column: key.Column},
			})
		}
	}

	// Predicates for entities whose filters were not folded into a
	// pre-aggregation CTE.
	for _, entity := range p.joinOrder {
		if _, ok := preAgg[entity]; ok {
			continue
		}
		for _, f := range lp.EntityFilters[entity] {
			ops = append(ops, whereOp(entity, f))
		}
	}

	// Filter-based time strategies widen the period predicate instead
	// of adding structure.
	for _, m := range lp.TimeMeasures() {
		if ts, ok := p.timeStrategies[m.Measure.Name]; ok && ts == TimeFilterBased {
			ops = append(ops, &sqlbuild.Where{
				Column: sqlbuild.Column{Table: m.Columns[0].Entity, Column: m.Columns[0].Column},
				Op:     "<=",
				Value:  "@period_end",
			})
		}
	}

	if len(lp.GroupBy) > 0 {
		cols := make([]sqlbuild.Column, len(lp.GroupBy))
		for i, c := range lp.GroupBy {
			cols[i] = sqlbuild.Column{Table: c.Entity, Column: c.Column}
		}
		ops = append(ops, &sqlbuild.GroupBy{Columns: cols})
	}

	ops = append(ops, &sqlbuild.Select{Items: p.projections(source)})

	for _, f := range lp.PostFilters {
		ops = append(ops, whereOp("", f))
	}

	keys, limit := outputShape(lp.Root)
	if len(keys) > 0 {
		ops = append(ops, &sqlbuild.OrderBy{Keys: keys})
	}
	if limit != nil {
		ops = append(ops, limit)
	}
	return ops
}

func (p *Plan) preAggCTE(entity string, measures []logical.MeasureRef) *sqlbuild.AddCTE {
	lp := p.logical
	var inner []sqlbuild.Op
	inner = append(inner, &sqlbuild.From{Table: entity, Alias: entity})
	for _, f := range lp.EntityFilters[entity] {
		inner = append(inner, whereOp(entity, f))
	}

	groupCols := keyColumns(lp.Path, entity)
	for _, c := range lp.GroupBy {
		if c.Entity == entity {
			groupCols = appendColumn(groupCols, sqlbuild.Column{Table: entity, Column: c.Column})
		}
	}
	if len(groupCols) > 0 {
		inner = append(inner, &sqlbuild.GroupBy{Columns: groupCols})
	}

	items := make([]sqlbuild.Projection, 0, len(groupCols)+len(measures))
	for _, c := range groupCols {
		items = append(items, sqlbuild.Projection{Kind: sqlbuild.ProjectColumn, Column: c})
	}
	for _, m := range measures {
		items = append(items, sqlbuild.Projection{
			Kind:      sqlbuild.ProjectAggregate,
			Aggregate: m.Measure.Agg.String(),
			Column:    sqlbuild.Column{Table: entity, Column: m.Columns[0].Column},
			Alias:     m.Measure.Name,
		})
	}
	inner = append(inner, &sqlbuild.Select{Items: items})
	return &sqlbuild.AddCTE{Name: "agg_" + entity, Ops: inner}
}

func (p *Plan) shiftCTE(m logical.MeasureRef) *sqlbuild.AddCTE {
	key := p.shiftJoinKey(m)
	keyCol := sqlbuild.Column{Table: m.Entity, Column: key.Column}
	return &sqlbuild.AddCTE{
		Name: "shift_" + m.Measure.Name,
		Ops: []sqlbuild.Op{
			&sqlbuild.From{Table: m.Entity, Alias: m.Entity},
			&sqlbuild.GroupBy{Columns: []sqlbuild.Column{keyCol}},
			&sqlbuild.Select{Items: []sqlbuild.Projection{
				{Kind: sqlbuild.ProjectColumn, Column: keyCol},
				{
					Kind:      sqlbuild.ProjectAggregate,
					Aggregate: m.Measure.Agg.String(),
					Column:    sqlbuild.Column{Table: m.Entity, Column: m.Columns[0].Column},
					Alias:     m.Measure.Name,
				},
			}},
		},
	}
}

// shiftJoinKey picks the column a shifted-period CTE joins back on. It
// must live on the measure's own entity: the entity's join key on the
// path, else a local group-by column, else the measure column itself.
func (p *Plan) shiftJoinKey(m logical.MeasureRef) graph.ColumnRef {
	keys := keyColumns(p.logical.Path, m.Entity)
	if len(keys) > 0 {
		return graph.ColumnRef{Entity: m.Entity, Column: keys[0].Column}
	}
	for _, c := range p.logical.GroupBy {
		if c.Entity == m.Entity {
			return c
		}
	}
	return m.Columns[0]
}

func (p *Plan) projections(source func(string) string) []sqlbuild.Projection {
	lp := p.logical
	var items []sqlbuild.Projection

	for _, c := range lp.GroupBy {
		items = append(items, sqlbuild.Projection{
			Kind:   sqlbuild.ProjectColumn,
			Column: sqlbuild.Column{Table: c.Entity, Column: c.Column},
		})
	}

	for _, m := range lp.Measures {
		name := m.Measure.Name
		col := sqlbuild.Column{Table: m.Entity, Column: m.Columns[0].Column}

		if ts, ok := p.timeStrategies[name]; ok {
			switch ts {
			case TimeWindowFunction:
				items = append(items, sqlbuild.Projection{
					Kind:      sqlbuild.ProjectWindow,
					Aggregate: m.Measure.Agg.String(),
					Column:    col,
					Alias:     name,
					Window:    windowSpec(lp, m, *m.Measure.Time),
				})
				continue
			case TimeSelfJoin:
				items = append(items, sqlbuild.Projection{
					Kind:   sqlbuild.ProjectColumn,
					Column: sqlbuild.Column{Table: "shift_" + name, Column: name},
					Alias:  name,
				})
				continue
			}
			// TimeFilterBased falls through: the widened predicate
			// already shapes the aggregate below.
		}

		if s, ok := p.aggStrategies[name]; ok && s == PreAggregate {
			items = append(items, sqlbuild.Projection{
				Kind:   sqlbuild.ProjectColumn,
				Column: sqlbuild.Column{Table: source(m.Entity), Column: name},
				Alias:  name,
			})
			continue
		}

		items = append(items, sqlbuild.Projection{
			Kind:      sqlbuild.ProjectAggregate,
			Aggregate: m.Measure.Agg.String(),
			Column:    col,
			Alias:     name,
		})
	}

	for _, c := range lp.Inline {
		items = append(items, sqlbuild.Projection{
			Kind:       sqlbuild.ProjectExpression,
			Expression: c.Raw,
			Alias:      c.Name,
		})
	}
	return items
}

func windowSpec(lp *logical.Plan, m logical.MeasureRef, modifier report.TimeModifier) *sqlbuild.WindowSpec {
	spec := &sqlbuild.WindowSpec{OrderBy: periodOrderColumns(lp, m)}
	ordered := make(map[sqlbuild.Column]bool, len(spec.OrderBy))
	for _, c := range spec.OrderBy {
		ordered[c] = true
	}
	for _, c := range lp.GroupBy {
		col := sqlbuild.Column{Table: c.Entity, Column: c.Column}
		if ordered[col] {
			continue
		}
		spec.PartitionBy = append(spec.PartitionBy, col)
	}
	if modifier.Trailing() {
		spec.Frame = fmt.Sprintf("ROWS %d PRECEDING", modifier.WindowSize)
	} else {
		spec.Frame = "ROWS UNBOUNDED PRECEDING"
	}
	return spec
}

// periodOrderColumns picks what the window frame advances over: the
// drill levels when the report drills a hierarchy, else a group-by
// column on the measure's own entity. Empty means the builder orders by
// the period column the modifier implies. The frame must never order by
// a column it also partitions on; that collapses each partition to a
// single frame row.
func periodOrderColumns(lp *logical.Plan, m logical.MeasureRef) []sqlbuild.Column {
	if levels := drillLevels(lp.Root); len(levels) > 0 {
		cols := make([]sqlbuild.Column, len(levels))
		for i, c := range levels {
			cols[i] = sqlbuild.Column{Table: c.Entity, Column: c.Column}
		}
		return cols
	}
	for _, c := range lp.GroupBy {
		if c.Entity == m.Entity {
			return []sqlbuild.Column{{Table: c.Entity, Column: c.Column}}
		}
	}
	return nil
}

// drillLevels walks the single-input wrapper chain for the first drill
// node and returns its hierarchy levels, outermost first.
func drillLevels(root logical.Node) []graph.ColumnRef {
	for node := root; node != nil; {
		if d, ok := node.(*logical.DrillPath); ok {
			return d.Levels
		}
		children := node.Children()
		if len(children) == 0 {
			return nil
		}
		node = children[0]
	}
	return nil
}

// keyColumns returns the join-key columns an entity contributes to the
// path, path order, deduplicated.
func keyColumns(path graph.Path, entity string) []sqlbuild.Column {
	var cols []sqlbuild.Column
	for _, hop := range path {
		if hop.From == entity {
			cols = appendColumn(cols, sqlbuild.Column{Table: entity, Column: hop.Rel.FromColumn})
		}
		if hop.To == entity {
			cols = appendColumn(cols, sqlbuild.Column{Table: entity, Column: hop.Rel.ToColumn})
		}
	}
	return cols
}

func appendColumn(cols []sqlbuild.Column, c sqlbuild.Column) []sqlbuild.Column {
	for _, existing := range cols {
		if existing == c {
			return cols
		}
	}
	return append(cols, c)
}

// connectingHop finds the path hop linking entity to the joined prefix,
// oriented prefix→entity.
func connectingHop(path graph.Path, entity string, prefix []string) (graph.Hop, bool) {
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

func whereOp(entity string, f report.Filter) *sqlbuild.Where {
	return &sqlbuild.Where{
		Column: sqlbuild.Column{Table: entity, Column: f.Dimension},
		Op:     f.Op.String(),
		Value:  f.Value,
	}
}

// outputShape extracts sort keys and limit from the logical root
// wrappers.
func outputShape(root logical.Node) ([]sqlbuild.OrderKey, *sqlbuild.Limit) {
	var keys []sqlbuild.OrderKey
	var limit *sqlbuild.Limit
	node := root
	for {
		switch v := node.(type) {
		case *logical.Limit:
			limit = &sqlbuild.Limit{Count: v.Count, Offset: v.Offset}
			node = v.Input
		case *logical.Sort:
			for _, k := range v.Keys {
				keys = append(keys, sqlbuild.OrderKey{Column: k.Column, Desc: k.Desc})
			}
			node = v.Input
		default:
			return keys, limit
		}
	}
}
