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

package logical

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/druarnfield/mantis-core-sub002/core"
	"github.com/druarnfield/mantis-core-sub002/expr"
	"github.com/druarnfield/mantis-core-sub002/graph"
	"github.com/druarnfield/mantis-core-sub002/logging"
	"github.com/druarnfield/mantis-core-sub002/report"
)

// Planner turns a report plus a graph snapshot into one logical plan.
// It makes no physical decision: join order is correctness-only, no
// aggregation placement, no time strategy.
type Planner struct {
	logger *zap.SugaredLogger
}

func NewPlanner() *Planner {
	return &Planner{logger: logging.GetLogger("logical-planner")}
}

// drillRef is a dimension with resolved hierarchy levels.
type drillRef struct {
	dimension string
	entity    string
	levels    []graph.ColumnRef
}

// Build resolves every reference, checks reachability and fan-out
// safety, and assembles the tree bottom-up.
func (p *Planner) Build(rep *report.Report, g graph.Graph) (*Plan, error) {
	if err := expr.CheckCycles(rep.Inline); err != nil {
		return nil, err
	}

	var (
		resolveErr    error
		measures      []MeasureRef
		groupBy       []graph.ColumnRef
		drills        []drillRef
		entityFilters = make(map[string][]report.Filter)
		postFilters   []report.Filter
		inline        []*expr.Compiled
		inlineColumns = make(map[string][]graph.ColumnRef)
	)

	inlineNames := make(map[string]bool, len(rep.Inline))
	for _, im := range rep.Inline {
		inlineNames[im.Name] = true
	}

	// Entity order is first-mention order; it fixes the identity of the
	// plan's entity set for the physical stage.
	var entities []string
	seen := make(map[string]bool)
	addEntity := func(name string) {
		if !seen[name] {
			seen[name] = true
			entities = append(entities, name)
		}
	}

	for _, m := range rep.Measures {
		cols, ok := g.MeasureColumns(m.Name)
		if !ok || len(cols) == 0 {
			resolveErr = multierr.Append(resolveErr,
				core.NewPlanError(core.KindUnknownMeasure, "measure '%s' is not defined in the graph", m.Name))
			continue
		}
		owner := cols[0].Entity
		if _, ok := g.Entity(owner); !ok {
			resolveErr = multierr.Append(resolveErr,
				core.NewPlanError(core.KindUnknownMeasure, "measure '%s' resolves to unknown entity '%s'", m.Name, owner))
			continue
		}
		addEntity(owner)
		measures = append(measures, MeasureRef{Measure: m, Entity: owner, Columns: cols})
	}

	for _, d := range rep.Dimensions {
		col, ok := g.DimensionColumn(d.Name)
		if !ok {
			resolveErr = multierr.Append(resolveErr,
				core.NewPlanError(core.KindUnknownDimension, "dimension '%s' is not defined in the graph", d.Name))
			continue
		}
		addEntity(col.Entity)
		groupBy = append(groupBy, col)
		if len(d.Drill) > 0 {
			levels, err := resolveDrill(g, d, col)
			if err != nil {
				resolveErr = multierr.Append(resolveErr, err)
				continue
			}
			drills = append(drills, drillRef{dimension: d.Name, entity: col.Entity, levels: levels})
		}
	}

	for _, f := range rep.Filters {
		if col, ok := g.DimensionColumn(f.Dimension); ok {
			addEntity(col.Entity)
			entityFilters[col.Entity] = append(entityFilters[col.Entity], f)
			continue
		}
		if inlineNames[f.Dimension] {
			postFilters = append(postFilters, f)
			continue
		}
		resolveErr = multierr.Append(resolveErr,
			core.NewPlanError(core.KindUnknownDimension, "filter references unknown dimension '%s'", f.Dimension))
	}

	for _, im := range rep.Inline {
		var cols []graph.ColumnRef
		for _, dep := range im.DependsOn {
			if inlineNames[dep] {
				continue
			}
			depCols, ok := g.MeasureColumns(dep)
			if !ok {
				resolveErr = multierr.Append(resolveErr,
					core.NewPlanError(core.KindUnknownMeasure, "inline measure '%s' depends on unknown measure '%s'", im.Name, dep))
				continue
			}
			for _, c := range depCols {
				addEntity(c.Entity)
			}
			cols = append(cols, depCols...)
		}
		compiled, err := expr.Compile(im.Name, im.Expression, im.DependsOn)
		if err != nil {
			resolveErr = multierr.Append(resolveErr, err)
			continue
		}
		inline = append(inline, compiled)
		inlineColumns[im.Name] = cols
	}

	if resolveErr != nil {
		return nil, resolveErr
	}

	var path graph.Path
	if len(entities) > 1 {
		found, ok := g.JoinPath(entities)
		if !ok {
			return nil, core.NewPlanError(core.KindUnreachableEntity,
				"no join path connects entities %v", entities)
		}
		path = found
		// The path may route through bridge entities the report never
		// names; the tree scans them, so the physical stage must order
		// and join them too.
		for _, e := range path.Entities() {
			addEntity(e)
		}
		if err := checkFanout(path, measures, g); err != nil {
			return nil, err
		}
	}

	root := p.assemble(rep, g, entities, path, measures, groupBy, drills, entityFilters, postFilters, inline, inlineColumns)

	p.logger.Debugw("logical plan built",
		"report", rep.Name,
		"entities", entities,
		"hops", len(path),
		"measures", len(measures))

	return &Plan{
		Root:          root,
		Entities:      entities,
		Path:          path,
		Measures:      measures,
		GroupBy:       groupBy,
		EntityFilters: entityFilters,
		PostFilters:   postFilters,
		Inline:        inline,
	}, nil
}

func resolveDrill(g graph.Graph, d report.Dimension, col graph.ColumnRef) ([]graph.ColumnRef, error) {
	hierarchy, ok := g.Hierarchy(col.Entity)
	if !ok {
		return nil, core.NewPlanError(core.KindUnknownDimension,
			"dimension '%s' requests drill levels but entity '%s' has no hierarchy", d.Name, col.Entity)
	}
	byName := make(map[string]graph.ColumnRef, len(hierarchy))
	for _, level := range hierarchy {
		byName[level.Column] = level
	}
	levels := make([]graph.ColumnRef, 0, len(d.Drill))
	for _, want := range d.Drill {
		level, ok := byName[want]
		if !ok {
			return nil, core.NewPlanError(core.KindUnknownDimension,
				"drill level '%s' is not in the hierarchy of '%s'", want, col.Entity)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// checkFanout rejects paths whose many-producing hops lack an
// aggregation anchor: a many-side entity owning at least one aggregated
// measure re-collapses the duplication it introduces.
func checkFanout(path graph.Path, measures []MeasureRef, g graph.Graph) error {
	for _, hop := range path.ManyProducingHops() {
		anchored := false
		for _, m := range measures {
			if m.Entity == hop.To {
				anchored = true
				break
			}
		}
		if !anchored && g.AggregationHint(hop.To) == graph.AggHintPreAggregate {
			anchored = true
		}
		if !anchored {
			return core.NewPlanError(core.KindUnsafeFanout,
				"join %s -> %s traverses a %s relationship with no aggregation anchor on '%s'",
				hop.From, hop.To, hop.Rel.Cardinality, hop.To)
		}
	}
	return nil
}

func (p *Planner) assemble(
	rep *report.Report,
	g graph.Graph,
	entities []string,
	path graph.Path,
	measures []MeasureRef,
	groupBy []graph.ColumnRef,
	drills []drillRef,
	entityFilters map[string][]report.Filter,
	postFilters []report.Filter,
	inline []*expr.Compiled,
	inlineColumns map[string][]graph.ColumnRef,
) Node {
	scanFor := func(entity string) Node {
		meta, _ := g.Entity(entity)
		var node Node = &Scan{Entity: meta}
		if filters := entityFilters[entity]; len(filters) > 0 {
			node = &Filter{Input: node, Filters: filters, Entity: entity}
		}
		return node
	}

	var current Node
	if len(path) == 0 {
		current = scanFor(entities[0])
	} else {
		current = scanFor(path.Entities()[0])
		for _, hop := range path {
			current = &Join{Left: current, Right: scanFor(hop.To), Hop: hop}
		}
	}

	current = &Aggregate{Input: current, GroupBy: groupBy, Measures: measures}

	for _, m := range measures {
		if m.Measure.Time != nil {
			current = &TimeMeasure{Input: current, Measure: m, Modifier: *m.Measure.Time}
		}
	}

	for _, d := range drills {
		current = &DrillPath{Input: current, Dimension: d.dimension, Entity: d.entity, Levels: d.levels}
	}

	for _, compiled := range inline {
		current = &InlineMeasure{Input: current, Compiled: compiled, Columns: inlineColumns[compiled.Name]}
	}

	if len(postFilters) > 0 {
		current = &Filter{Input: current, Filters: postFilters}
	}

	columns := make([]ProjectedColumn, 0, len(groupBy)+len(measures)+len(inline))
	for i, d := range rep.Dimensions {
		if i < len(groupBy) {
			col := groupBy[i]
			columns = append(columns, ProjectedColumn{Name: d.Name, Column: &col})
		}
	}
	for _, m := range measures {
		columns = append(columns, ProjectedColumn{Name: m.Measure.Name})
	}
	for _, compiled := range inline {
		columns = append(columns, ProjectedColumn{Name: compiled.Name})
	}
	current = &Project{Input: current, Columns: columns}

	if len(rep.Sort) > 0 {
		current = &Sort{Input: current, Keys: rep.Sort}
	}
	if rep.Limit != nil {
		current = &Limit{Input: current, Count: rep.Limit.Count, Offset: rep.Limit.Offset}
	}
	return current
}
