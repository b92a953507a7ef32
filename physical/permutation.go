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
	"sort"

	"github.com/cznic/mathutil"

	"github.com/druarnfield/mantis-core-sub002/graph"
)

// rankedOrder is a connectivity-valid join order with its heuristic
// score; lower scores join smaller inputs earlier.
type rankedOrder struct {
	order []string
	score float64
	pos   int // enumeration position, the stable sort tie-break
}

// rankJoinOrders enumerates the top-K join orders. Entity counts up to
// exhaustiveLimit are permuted exhaustively; larger sets use greedy
// ascending-size enumeration to avoid factorial blowup. Output is
// deterministic for identical inputs.
func rankJoinOrders(entities []string, g graph.Graph, topK, exhaustiveLimit int) [][]string {
	if len(entities) <= 1 {
		return [][]string{append([]string(nil), entities...)}
	}
	var ranked []rankedOrder
	if len(entities) <= exhaustiveLimit {
		ranked = exhaustiveOrders(entities, g)
	} else {
		ranked = greedyOrders(entities, g, topK)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	out := make([][]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.order
	}
	return out
}

func exhaustiveOrders(entities []string, g graph.Graph) []rankedOrder {
	indices := make(sort.IntSlice, len(entities))
	for i := range indices {
		indices[i] = i
	}
	mathutil.PermutationFirst(indices)

	var ranked []rankedOrder
	pos := 0
	for {
		order := make([]string, len(entities))
		for i, idx := range indices {
			order[i] = entities[idx]
		}
		if connected(order, g) {
			ranked = append(ranked, rankedOrder{order: order, score: orderScore(order, g), pos: pos})
		}
		pos++
		if !mathutil.PermutationNext(indices) {
			break
		}
	}
	return ranked
}

// greedyOrders builds an ascending-size base order plus adjacent-swap
// variants, all connectivity-valid.
func greedyOrders(entities []string, g graph.Graph, topK int) []rankedOrder {
	base := greedyAscending(entities, g)
	if base == nil {
		return nil
	}
	ranked := []rankedOrder{{order: base, score: orderScore(base, g), pos: 0}}
	pos := 1
	for i := 1; i < len(base) && len(ranked) < topK; i++ {
		variant := append([]string(nil), base...)
		variant[i-1], variant[i] = variant[i], variant[i-1]
		if connected(variant, g) {
			ranked = append(ranked, rankedOrder{order: variant, score: orderScore(variant, g), pos: pos})
			pos++
		}
	}
	return ranked
}

// greedyAscending starts from the smallest entity and repeatedly appends
// the smallest remaining entity connected to the prefix.
func greedyAscending(entities []string, g graph.Graph) []string {
	remaining := append([]string(nil), entities...)
	sort.SliceStable(remaining, func(i, j int) bool {
		ri, rj := entityRows(remaining[i], g), entityRows(remaining[j], g)
		if ri != rj {
			return ri < rj
		}
		return remaining[i] < remaining[j]
	})

	order := []string{remaining[0]}
	remaining = remaining[1:]
	for len(remaining) > 0 {
		picked := -1
		for i, candidate := range remaining {
			if adjacentToAny(candidate, order, g) {
				picked = i
				break
			}
		}
		if picked < 0 {
			return nil
		}
		order = append(order, remaining[picked])
		remaining = append(remaining[:picked], remaining[picked+1:]...)
	}
	return order
}

// connected reports whether every entity after the first joins to some
// earlier entity via a known relationship.
func connected(order []string, g graph.Graph) bool {
	for i := 1; i < len(order); i++ {
		if !adjacentToAny(order[i], order[:i], g) {
			return false
		}
	}
	return true
}

func adjacentToAny(entity string, prefix []string, g graph.Graph) bool {
	for _, p := range prefix {
		if _, ok := g.Relationship(p, entity); ok {
			return true
		}
	}
	return false
}

// orderScore weights each entity's row estimate by how early it joins;
// placing large inputs late minimizes the score.
func orderScore(order []string, g graph.Graph) float64 {
	var score float64
	n := len(order)
	for i, e := range order {
		score += entityRows(e, g) * float64(n-i)
	}
	return score
}

func entityRows(entity string, g graph.Graph) float64 {
	meta, ok := g.Entity(entity)
	if !ok {
		return graph.SizeUnknown.DefaultRows()
	}
	return meta.Rows()
}
