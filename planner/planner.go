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

// Package planner orchestrates the three planning phases and returns the
// selected plan. One call is one report; the planner carries no state
// between calls and may be shared across goroutines.
package planner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/cost"
	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logging"
	"github.com/druarnfield/mantis-core-sub002/logical"
	"github.com/druarnfield/mantis-core-sub002/physical"
	"github.com/druarnfield/mantis-core-sub002/report"
	"github.com/druarnfield/mantis-core-sub002/sqlbuild"
	"github.com/druarnfield/mantis-core-sub002/telemetry"
)

// Config tunes one planner instance. Zero values fall back to defaults.
type Config struct {
	Weights     cost.Weights
	Generator   physical.Options
	Parallelism int
}

func DefaultConfig() Config {
	return Config{
		Weights:     cost.DefaultWeights(),
		Generator:   physical.DefaultOptions(),
		Parallelism: 4,
	}
}

// ConfigFromProperties reads planner settings from an externally loaded
// configuration section.
func ConfigFromProperties(props core.Properties) (Config, error) {
	cfg := DefaultConfig()
	weights, err := cost.WeightsFromProperties(props)
	if err != nil {
		return Config{}, err
	}
	cfg.Weights = weights
	return cfg, nil
}

// Planner wires the logical builder, the candidate generator and the
// cost model together.
type Planner struct {
	logical     *logical.Planner
	generator   *physical.Generator
	estimator   *cost.Estimator
	parallelism int

	logger         *zap.SugaredLogger
	planDuration   telemetry.DurationValueRecorder
	candidateCount metric.Int64ValueRecorder
}

func New(cfg Config) *Planner {
	if cfg.Weights == (cost.Weights{}) {
		cfg.Weights = cost.DefaultWeights()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultConfig().Parallelism
	}
	meter := telemetry.GetMeter("mantis.planner")
	return &Planner{
		logical:        logical.NewPlanner(),
		generator:      physical.NewGenerator(cfg.Generator),
		estimator:      cost.NewEstimator(cfg.Weights),
		parallelism:    cfg.Parallelism,
		logger:         logging.GetLogger("planner"),
		planDuration:   meter.NewDurationValueRecorder("mantis.planner.plan_duration", "end-to-end planning latency"),
		candidateCount: meter.NewInt64ValueRecorder("mantis.planner.candidates", "candidates surviving generation per plan"),
	}
}

// Plan compiles a report against a snapshot into the cheapest executable
// plan the dialect supports. It is deterministic: identical report,
// snapshot and capabilities always select the same plan.
func (p *Planner) Plan(ctx context.Context, rep *report.Report, g graph.Graph, caps sqlbuild.Capabilities) (*Selection, error) {
	invocation := uuid.New().String()
	start := time.Now()

	lp, err := p.logical.Build(rep, g)
	if err != nil {
		p.logger.Warnw("logical planning failed",
			"invocation", invocation, "report", rep.Name, "error", err)
		return nil, err
	}

	candidates, err := p.generator.Generate(ctx, lp, g, caps)
	if err != nil {
		return nil, err
	}

	if err := p.costAll(ctx, candidates, g); err != nil {
		return nil, err
	}

	best, err := SelectMinCost(candidates, func(c *physical.Plan) float64 {
		return p.estimator.Estimate(c, g)
	})
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Plan:       best,
		Cost:       p.estimator.Estimate(best, g),
		Candidates: len(candidates),
		Logical:    lp.Describe(),
	}
	p.planDuration.RecordLatency(ctx, start)
	p.candidateCount.Record(ctx, int64(sel.Candidates))
	p.logger.Infow("plan selected",
		"invocation", invocation,
		"report", rep.Name,
		"entities", len(lp.Entities),
		"candidates", sel.Candidates,
		"cost", sel.Cost,
		"joinOrder", best.JoinOrder(),
		"elapsed", time.Since(start))
	return sel, nil
}

// costAll scores every candidate up front so selection is a pure scan.
// Scoring is fanned out across workers; each candidate memoizes its own
// score, so the later selector reads are free.
func (p *Planner) costAll(ctx context.Context, candidates []*physical.Plan, g graph.Graph) error {
	if len(candidates) == 0 {
		return nil
	}
	workers := p.parallelism
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan *physical.Plan)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				p.estimator.Estimate(c, g)
			}
		}()
	}

	var interrupted bool
	for _, c := range candidates {
		select {
		case jobs <- c:
		case <-ctx.Done():
			interrupted = true
		}
		if interrupted {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if interrupted {
		return core.NewPlanError(core.KindTimeout,
			"cost estimation interrupted: %s", ctx.Err())
	}
	return nil
}
