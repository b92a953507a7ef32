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
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/report"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
)

func planningSchema(t *testing.T) *graph.Snapshot {
	t.Helper()
	s, err := graph.NewSnapshotBuilder().
		Entity(graph.EntityMeta{Name: "sales", Kind: graph.EntityFact, RowCount: 10_000_000}).
		Entity(graph.EntityMeta{Name: "customer", Kind: graph.EntityDimension, RowCount: 50_000}).
		Column(graph.ColumnMeta{Entity: "sales", Name: "customer_id", DistinctCount: 50_000}).
		Relationship(graph.RelationshipMeta{
			From: "sales", To: "customer", FromColumn: "customer_id", ToColumn: "id",
			Cardinality: graph.ManyToOne, Trust: graph.TrustForeignKey, AvgFanOut: 200,
		}).
		Measure("revenue", graph.ColumnRef{Entity: "sales", Column: "amount"}).
		Dimension("region", graph.ColumnRef{Entity: "customer", Column: "region"}).
		Build()
	require.NoError(t, err)
	return s
}

func revenueReport() *report.Report {
	return &report.Report{
		Name:       "revenue by region",
		Measures:   []report.Measure{{Name: "revenue", Agg: report.AggSum}},
		Dimensions: []report.Dimension{{Name: "region"}},
		Sort:       []report.SortKey{{Column: "revenue", Desc: true}},
		Limit:      &report.Limit{Count: 100},
	}
}

func TestPlanEndToEnd(t *testing.T) {
	g := planningSchema(t)
	p := New(DefaultConfig())

	sel, err := p.Plan(context.Background(), revenueReport(), g, sqlbuild.DefaultCapabilities())
	require.NoError(t, err)
	require.NotNil(t, sel.Plan)
	assert.Greater(t, sel.Candidates, 0)
	assert.ElementsMatch(t, []string{"sales", "customer"}, sel.Plan.JoinOrder())

	// The winner renders a complete structural form.
	ops := sel.Plan.BuildOps()
	assert.NotEmpty(t, ops)
	assert.NotEmpty(t, sqlbuild.Preview(ops))
}

func TestPlanThroughBridgeEntity(t *testing.T) {
	// region hangs off store, not sales; the join path routes through
	// store even though the report never names it.
	s, err := graph.NewSnapshotBuilder().
		Entity(graph.EntityMeta{Name: "sales", Kind: graph.EntityFact, RowCount: 1_000_000}).
		Entity(graph.EntityMeta{Name: "store", Kind: graph.EntityDimension, RowCount: 500}).
		Entity(graph.EntityMeta{Name: "region", Kind: graph.EntityDimension, RowCount: 10}).
		Relationship(graph.RelationshipMeta{
			From: "sales", To: "store", FromColumn: "store_id", ToColumn: "id",
			Cardinality: graph.ManyToOne, Trust: graph.TrustForeignKey,
		}).
		Relationship(graph.RelationshipMeta{
			From: "store", To: "region", FromColumn: "region_id", ToColumn: "id",
			Cardinality: graph.ManyToOne, Trust: graph.TrustForeignKey,
		}).
		Measure("revenue", graph.ColumnRef{Entity: "sales", Column: "amount"}).
		Dimension("region_name", graph.ColumnRef{Entity: "region", Column: "name"}).
		Build()
	require.NoError(t, err)

	rep := &report.Report{
		Name:       "revenue by region",
		Measures:   []report.Measure{{Name: "revenue", Agg: report.AggSum}},
		Dimensions: []report.Dimension{{Name: "region_name"}},
	}
	sel, err := New(DefaultConfig()).Plan(context.Background(), rep, s, sqlbuild.DefaultCapabilities())
	require.NoError(t, err)
	assert.Greater(t, sel.Candidates, 0)
	assert.ElementsMatch(t, []string{"sales", "store", "region"}, sel.Plan.JoinOrder())
	assert.NotEmpty(t, sel.Plan.BuildOps())
}

func TestPlanDeterministic(t *testing.T) {
	g := planningSchema(t)
	caps := sqlbuild.DefaultCapabilities()

	first, err := New(DefaultConfig()).Plan(context.Background(), revenueReport(), g, caps)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := New(DefaultConfig()).Plan(context.Background(), revenueReport(), g, caps)
		require.NoError(t, err)
		assert.Equal(t, first.Cost, again.Cost)
		assert.Empty(t, cmp.Diff(first.Plan.JoinOrder(), again.Plan.JoinOrder()))
		assert.Equal(t, first.Plan.Describe(), again.Plan.Describe())
		assert.Equal(t, first.Plan.Sequence(), again.Plan.Sequence())
	}
}

func TestPlanSerialAndParallelAgree(t *testing.T) {
	g := planningSchema(t)
	caps := sqlbuild.DefaultCapabilities()

	serial := DefaultConfig()
	serial.Parallelism = 1
	parallel := DefaultConfig()
	parallel.Parallelism = 8

	a, err := New(serial).Plan(context.Background(), revenueReport(), g, caps)
	require.NoError(t, err)
	b, err := New(parallel).Plan(context.Background(), revenueReport(), g, caps)
	require.NoError(t, err)

	assert.Equal(t, a.Cost, b.Cost)
	assert.Equal(t, a.Plan.Describe(), b.Plan.Describe())
}

func TestPlanPropagatesLogicalErrors(t *testing.T) {
	g := planningSchema(t)
	rep := &report.Report{
		Measures: []report.Measure{{Name: "missing", Agg: report.AggSum}},
	}
	_, err := New(DefaultConfig()).Plan(context.Background(), rep, g, sqlbuild.DefaultCapabilities())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindUnknownMeasure))
}

func TestPlanCancelled(t *testing.T) {
	g := planningSchema(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultConfig()).Plan(ctx, revenueReport(), g, sqlbuild.DefaultCapabilities())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindTimeout))
}

func TestPlanDialectGated(t *testing.T) {
	g := planningSchema(t)
	rep := revenueReport()
	rep.Measures[0].Time = &report.TimeModifier{Kind: report.TimeRolling, WindowSize: 3, WindowUnit: "month"}

	_, err := New(DefaultConfig()).Plan(context.Background(), rep, g,
		sqlbuild.Capabilities{Dialect: "bare"})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindIncompatibleDialectFeature))
}

func TestConfigFromProperties(t *testing.T) {
	cfg, err := ConfigFromProperties(core.EmptyProperties)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Weights, cfg.Weights)
	assert.Equal(t, DefaultConfig().Parallelism, cfg.Parallelism)
}
