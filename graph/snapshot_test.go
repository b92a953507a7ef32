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

package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// starSchema builds sales N:1 customer, sales N:1 product,
// customer N:1 region.
func starSchema(t *testing.T) *Snapshot {
	t.Helper()
	s, err := NewSnapshotBuilder().
		Entity(EntityMeta{Name: "sales", Kind: EntityFact, RowCount: 1_000_000}).
		Entity(EntityMeta{Name: "customer", Kind: EntityDimension, RowCount: 50_000}).
		Entity(EntityMeta{Name: "product", Kind: EntityDimension, RowCount: 2_000}).
		Entity(EntityMeta{Name: "region", Kind: EntityDimension, RowCount: 10}).
		Relationship(RelationshipMeta{
			From: "sales", To: "customer", FromColumn: "customer_id", ToColumn: "id",
			Cardinality: ManyToOne, Trust: TrustForeignKey,
		}).
		Relationship(RelationshipMeta{
			From: "sales", To: "product", FromColumn: "product_id", ToColumn: "id",
			Cardinality: ManyToOne, Trust: TrustForeignKey,
		}).
		Relationship(RelationshipMeta{
			From: "customer", To: "region", FromColumn: "region_id", ToColumn: "id",
			Cardinality: ManyToOne, Trust: TrustForeignKey,
		}).
		Build()
	require.NoError(t, err)
	return s
}

func TestRelationshipBothDirections(t *testing.T) {
	s := starSchema(t)

	fwd, ok := s.Relationship("sales", "customer")
	require.True(t, ok)
	assert.Equal(t, ManyToOne, fwd.Cardinality)

	rev, ok := s.Relationship("customer", "sales")
	require.True(t, ok)
	assert.Equal(t, OneToMany, rev.Cardinality)
	assert.Equal(t, "id", rev.FromColumn)
	assert.Equal(t, "customer_id", rev.ToColumn)
}

func TestJoinPath(t *testing.T) {
	s := starSchema(t)

	tcases := []struct {
		desc     string
		entities []string
		wantOK   bool
		wantHops int
	}{
		{desc: "single entity needs no path", entities: []string{"sales"}, wantOK: true, wantHops: 0},
		{desc: "adjacent pair", entities: []string{"sales", "customer"}, wantOK: true, wantHops: 1},
		{desc: "two hops through customer", entities: []string{"sales", "region"}, wantOK: true, wantHops: 2},
		{desc: "three entities share the fact", entities: []string{"sales", "customer", "product"}, wantOK: true, wantHops: 2},
		{desc: "unknown entity", entities: []string{"sales", "warehouse"}, wantOK: false},
	}
	for _, tc := range tcases {
		t.Run(tc.desc, func(t *testing.T) {
			path, ok := s.JoinPath(tc.entities)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Len(t, path, tc.wantHops)
			}
		})
	}
}

func TestJoinPathDeterministic(t *testing.T) {
	entities := []string{"sales", "region", "product"}
	first, ok := starSchema(t).JoinPath(entities)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := starSchema(t).JoinPath(entities)
		require.True(t, ok)
		assert.Empty(t, cmp.Diff(first, again))
	}
}

func TestPathSafe(t *testing.T) {
	s := starSchema(t)

	safe, ok := s.JoinPath([]string{"sales", "customer"})
	require.True(t, ok)
	assert.True(t, s.PathSafe(safe))

	// Starting from the dimension traverses customer 1:N sales.
	unsafe, ok := s.JoinPath([]string{"customer", "sales"})
	require.True(t, ok)
	assert.False(t, s.PathSafe(unsafe))
	assert.Len(t, unsafe.ManyProducingHops(), 1)
}

// detourSchema connects customer and account twice: a direct 1:N edge
// and a row-preserving two-hop route via profile.
func detourSchema(t *testing.T) *Snapshot {
	t.Helper()
	s, err := NewSnapshotBuilder().
		Entity(EntityMeta{Name: "customer", Kind: EntityDimension, RowCount: 50_000}).
		Entity(EntityMeta{Name: "profile", Kind: EntityDimension, RowCount: 50_000}).
		Entity(EntityMeta{Name: "account", Kind: EntityDimension, RowCount: 60_000}).
		Relationship(RelationshipMeta{
			From: "customer", To: "account", FromColumn: "id", ToColumn: "customer_id",
			Cardinality: OneToMany, Trust: TrustStatistical,
		}).
		Relationship(RelationshipMeta{
			From: "customer", To: "profile", FromColumn: "profile_id", ToColumn: "id",
			Cardinality: ManyToOne, Trust: TrustForeignKey,
		}).
		Relationship(RelationshipMeta{
			From: "profile", To: "account", FromColumn: "account_id", ToColumn: "id",
			Cardinality: ManyToOne, Trust: TrustForeignKey,
		}).
		Build()
	require.NoError(t, err)
	return s
}

func TestJoinPathPrefersRowPreservingRoute(t *testing.T) {
	s := detourSchema(t)

	// The direct edge is shorter but multiplies rows; the detour through
	// profile wins.
	path, ok := s.JoinPath([]string{"customer", "account"})
	require.True(t, ok)
	assert.True(t, s.PathSafe(path))
	assert.Equal(t, []string{"customer", "profile", "account"}, path.Entities())
}

func TestPathEntities(t *testing.T) {
	s := starSchema(t)
	path, ok := s.JoinPath([]string{"sales", "region"})
	require.True(t, ok)
	assert.Equal(t, []string{"sales", "customer", "region"}, path.Entities())
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewSnapshotBuilder().Entity(EntityMeta{Name: "a"})
	_, err := b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.Error(t, err)
}

func TestEntityRowsFallsBackToSize(t *testing.T) {
	assert.Equal(t, float64(42), EntityMeta{RowCount: 42}.Rows())
	assert.Equal(t, 1e3, EntityMeta{Size: SizeSmall}.Rows())
	assert.Equal(t, 1e5, EntityMeta{}.Rows())
}

func TestMockFactDimension(t *testing.T) {
	s := MockFactDimension("orders", 1_000_000, "store", 500)
	rel, ok := s.Relationship("orders", "store")
	require.True(t, ok)
	assert.Equal(t, ManyToOne, rel.Cardinality)
	meta, ok := s.Entity("store")
	require.True(t, ok)
	assert.Equal(t, int64(500), meta.RowCount)
}
