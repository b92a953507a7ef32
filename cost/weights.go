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

// Package cost scores physical candidates with a weighted heuristic
// model. Scores are relative: they rank candidates of one planning call
// and mean nothing across calls or snapshots.
package cost

import (
	"github.com/pingcap/errors"

	"github.com/druarnfield/mantis-core-sub002/core"
)

// Weights are the factor weights of the cost model. They must be
// non-negative; zero disables a factor.
type Weights struct {
	IntermediateSize     float64 `yaml:"intermediateSize"`
	RowsProcessed        float64 `yaml:"rowsProcessed"`
	JoinComplexity       float64 `yaml:"joinComplexity"`
	AggregationCost      float64 `yaml:"aggregationCost"`
	StructuralComplexity float64 `yaml:"structuralComplexity"`
}

func DefaultWeights() Weights {
	return Weights{
		IntermediateSize:     0.4,
		RowsProcessed:        0.3,
		JoinComplexity:       0.15,
		AggregationCost:      0.1,
		StructuralComplexity: 0.05,
	}
}

// WeightsFromProperties overlays configured weights on the defaults.
func WeightsFromProperties(props core.Properties) (Weights, error) {
	w := DefaultWeights()
	if err := props.PopulateValue(&w); err != nil {
		return Weights{}, errors.Annotate(err, "populate cost weights")
	}
	if err := w.validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

func (w Weights) validate() error {
	factors := []struct {
		name  string
		value float64
	}{
		{"intermediateSize", w.IntermediateSize},
		{"rowsProcessed", w.RowsProcessed},
		{"joinComplexity", w.JoinComplexity},
		{"aggregationCost", w.AggregationCost},
		{"structuralComplexity", w.StructuralComplexity},
	}
	sum := 0.0
	for _, f := range factors {
		if f.value < 0 {
			return errors.Errorf("cost weight %s is negative: %f", f.name, f.value)
		}
		sum += f.value
	}
	if sum == 0 {
		return errors.New("all cost weights are zero")
	}
	return nil
}
