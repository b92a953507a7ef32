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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/report"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
)

func opKinds(ops []sqlbuild.Op) []sqlbuild.OpKind {
	kinds := make([]sqlbuild.OpKind, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind()
	}
	return kinds
}

func findCTE(ops []sqlbuild.Op, name string) *sqlbuild.AddCTE {
	for _, op := range ops {
		if cte, ok := op.(*sqlbuild.AddCTE); ok && cte.Name == name {
			return cte
		}
	}
	return nil
}

func selectOf(t *testing.T, ops []sqlbuild.Op) *sqlbuild.Select {
	t.Helper()
	for _, op := range ops {
		if sel, ok := op.(*sqlbuild.Select); ok {
			return sel
		}
	}
	t.Fatal("no Select op emitted")
	return nil
}

func postAggPlan(t *testing.T, lp *logical.Plan) *Plan {
	t.Helper()
	return &Plan{
		logical:       lp,
		joinOrder:     append([]string(nil), lp.Entities...),
		aggStrategies: map[string]AggStrategy{"revenue": PostAggregate},
	}
}

func TestTranslatePostAggregate(t *testing.T) {
	g := buildSchema(t)
	lp := buildLogical(t, g, crossEntityReport(nil))
	p := postAggPlan(t, lp)

	ops := p.BuildOps()
	assert.Equal(t, []sqlbuild.OpKind{
		sqlbuild.OpFrom, sqlbuild.OpJoin, sqlbuild.OpGroupBy, sqlbuild.OpSelect,
	}, opKinds(ops))

	from := ops[0].(*sqlbuild.From)
	assert.Equal(t, "sales", from.Table)

	join := ops[1].(*sqlbuild.Join)
	assert.Equal(t, "customer", join.Table)
	assert.Equal(t, sqlbuild.Column{Table: "sales", Column: "customer_id"}, join.Left)
	assert.Equal(t, sqlbuild.Column{Table: "customer", Column: "id"}, join.Right)

	sel := selectOf(t, ops)
	require.Len(t, sel.Items, 2)
	assert.Equal(t, sqlbuild.ProjectColumn, sel.Items[0].Kind)
	assert.Equal(t, sqlbuild.ProjectAggregate, sel.Items[1].Kind)
	assert.Equal(t, "SUM", sel.Items[1].Aggregate)
	assert.Equal(t, "revenue", sel.Items[1].Alias)
}

func TestTranslatePreAggregate(t *testing.T) {
	g := buildSchema(t)
	lp := buildLogical(t, g, crossEntityReport(nil))
	p := &Plan{
		logical:       lp,
		joinOrder:     append([]string(nil), lp.Entities...),
		aggStrategies: map[string]AggStrategy{"revenue": PreAggregate},
	}

	ops := p.BuildOps()
	cte := findCTE(ops, "agg_sales")
	require.NotNil(t, cte, "pre-aggregation must emit a CTE for the owner entity")

	// The CTE groups by the join key and aggregates the measure.
	inner := selectOf(t, cte.Ops)
	var aliases []string
	for _, item := range inner.Items {
		if item.Kind == sqlbuild.ProjectAggregate {
			aliases = append(aliases, item.Alias)
		}
	}
	assert.Equal(t, []string{"revenue"}, aliases)

	// The main query reads the aggregated column from the CTE.
	from := ops[1].(*sqlbuild.From)
	assert.Equal(t, "agg_sales", from.Table)

	sel := selectOf(t, ops[1:])
	require.Len(t, sel.Items, 2)
	assert.Equal(t, sqlbuild.ProjectColumn, sel.Items[1].Kind)
	assert.Equal(t, "agg_sales", sel.Items[1].Column.Table)
}

func TestTranslateFilterPlacement(t *testing.T) {
	g := buildSchema(t)
	rep := crossEntityReport(nil)
	rep.Filters = []report.Filter{{Dimension: "region", Op: report.FilterEq, Value: "APAC"}}
	lp := buildLogical(t, g, rep)
	p := postAggPlan(t, lp)

	var wheres []*sqlbuild.Where
	for _, op := range p.BuildOps() {
		if w, ok := op.(*sqlbuild.Where); ok {
			wheres = append(wheres, w)
		}
	}
	require.Len(t, wheres, 1)
	assert.Equal(t, "customer", wheres[0].Column.Table)
	assert.Equal(t, "=", wheres[0].Op)
	assert.Equal(t, "APAC", wheres[0].Value)
}

func TestTranslateTimeStrategies(t *testing.T) {
	g := buildSchema(t)
	lp := buildLogical(t, g, crossEntityReport(&report.TimeModifier{Kind: report.TimeYearToDate}))

	base := func(ts TimeStrategy) *Plan {
		return &Plan{
			logical:        lp,
			joinOrder:      append([]string(nil), lp.Entities...),
			aggStrategies:  map[string]AggStrategy{"revenue": PostAggregate},
			timeStrategies: map[string]TimeStrategy{"revenue": ts},
		}
	}

	t.Run("self join adds a shift CTE and join", func(t *testing.T) {
		ops := base(TimeSelfJoin).BuildOps()
		require.NotNil(t, findCTE(ops, "shift_revenue"))
		joined := false
		for _, op := range ops {
			if j, ok := op.(*sqlbuild.Join); ok && j.Table == "shift_revenue" {
				joined = true
				assert.Equal(t, sqlbuild.JoinLeft, j.Type)
			}
		}
		assert.True(t, joined)
	})

	t.Run("window function projects a frame", func(t *testing.T) {
		sel := selectOf(t, base(TimeWindowFunction).BuildOps())
		var window *sqlbuild.Projection
		for i := range sel.Items {
			if sel.Items[i].Kind == sqlbuild.ProjectWindow {
				window = &sel.Items[i]
			}
		}
		require.NotNil(t, window)
		require.NotNil(t, window.Window)
		assert.Equal(t, "ROWS UNBOUNDED PRECEDING", window.Window.Frame)
		// The frame never orders by a column it also partitions on.
		for _, c := range window.Window.OrderBy {
			assert.NotContains(t, window.Window.PartitionBy, c)
		}
	})

	t.Run("filter based widens the predicate", func(t *testing.T) {
		widened := false
		for _, op := range base(TimeFilterBased).BuildOps() {
			if w, ok := op.(*sqlbuild.Where); ok && w.Op == "<=" {
				widened = true
			}
		}
		assert.True(t, widened)
	})
}

func TestTranslateWindowOrdersByPeriod(t *testing.T) {
	// sales N:1 customer and sales N:1 calendar, with a drill down the
	// calendar hierarchy; the window frame must advance over the drill
	// levels while partitioning on the remaining group columns.
	s, err := graph.NewSnapshotBuilder().
		Entity(graph.EntityMeta{Name: "sales", Kind: graph.EntityFact, RowCount: 1_000_000}).
		Entity(graph.EntityMeta{Name: "customer", Kind: graph.EntityDimension, RowCount: 50_000}).
		Entity(graph.EntityMeta{Name: "calendar", Kind: graph.EntityCalendar, RowCount: 3_650}).
		Relationship(graph.RelationshipMeta{
			From: "sales", To: "customer", FromColumn: "customer_id", ToColumn: "id",
			Cardinality: graph.ManyToOne, Trust: graph.TrustForeignKey,
		}).
		Relationship(graph.RelationshipMeta{
			From: "sales", To: "calendar", FromColumn: "date_id", ToColumn: "id",
			Cardinality: graph.ManyToOne, Trust: graph.TrustForeignKey,
		}).
		Measure("revenue", graph.ColumnRef{Entity: "sales", Column: "amount"}).
		Dimension("region", graph.ColumnRef{Entity: "customer", Column: "region"}).
		Dimension("month", graph.ColumnRef{Entity: "calendar", Column: "month"}).
		Hierarchy("calendar",
			graph.ColumnRef{Entity: "calendar", Column: "year"},
			graph.ColumnRef{Entity: "calendar", Column: "month"}).
		Build()
	require.NoError(t, err)

	lp := buildLogical(t, s, &report.Report{
		Measures: []report.Measure{{
			Name: "revenue",
			Agg:  report.AggSum,
			Time: &report.TimeModifier{Kind: report.TimeYearToDate},
		}},
		Dimensions: []report.Dimension{
			{Name: "region"},
			{Name: "month", Drill: []string{"year", "month"}},
		},
	})
	p := &Plan{
		logical:        lp,
		joinOrder:      append([]string(nil), lp.Entities...),
		aggStrategies:  map[string]AggStrategy{"revenue": PostAggregate},
		timeStrategies: map[string]TimeStrategy{"revenue": TimeWindowFunction},
	}

	sel := selectOf(t, p.BuildOps())
	var window *sqlbuild.Projection
	for i := range sel.Items {
		if sel.Items[i].Kind == sqlbuild.ProjectWindow {
			window = &sel.Items[i]
		}
	}
	require.NotNil(t, window)
	require.NotNil(t, window.Window)

	assert.Equal(t, []sqlbuild.Column{
		{Table: "calendar", Column: "year"},
		{Table: "calendar", Column: "month"},
	}, window.Window.OrderBy)
	assert.Equal(t, []sqlbuild.Column{
		{Table: "customer", Column: "region"},
	}, window.Window.PartitionBy)
}

func TestTranslateSortAndLimit(t *testing.T) {
	g := buildSchema(t)
	rep := crossEntityReport(nil)
	rep.Sort = []report.SortKey{{Column: "revenue", Desc: true}}
	rep.Limit = &report.Limit{Count: 25, Offset: 5}
	lp := buildLogical(t, g, rep)

	ops := postAggPlan(t, lp).BuildOps()
	require.GreaterOrEqual(t, len(ops), 2)

	orderBy, ok := ops[len(ops)-2].(*sqlbuild.OrderBy)
	require.True(t, ok)
	require.Len(t, orderBy.Keys, 1)
	assert.True(t, orderBy.Keys[0].Desc)

	limit, ok := ops[len(ops)-1].(*sqlbuild.Limit)
	require.True(t, ok)
	assert.Equal(t, int64(25), limit.Count)
	assert.Equal(t, int64(5), limit.Offset)
}

func TestBuildOpsMemoized(t *testing.T) {
	g := buildSchema(t)
	lp := buildLogical(t, g, crossEntityReport(nil))
	p := postAggPlan(t, lp)
	first := p.BuildOps()
	second := p.BuildOps()
	assert.Equal(t, len(first), len(second))
	if len(first) > 0 {
		assert.Same(t, first[0], second[0])
	}
}
