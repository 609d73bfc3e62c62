package tenantscope

import (
	"context"
	"testing"
	"time"

	"licity-service/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows map[uint]*uint // userID -> tenantID (nil means "all")
	puts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint]*uint{}}
}

func (s *fakeStore) Get(ctx context.Context, userID uint) (*uint, bool, error) {
	v, ok := s.rows[userID]
	return v, ok, nil
}

func (s *fakeStore) Put(ctx context.Context, userID uint, tenantID *uint) error {
	s.puts++
	s.rows[userID] = tenantID
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, userID uint) error {
	delete(s.rows, userID)
	return nil
}

func newTestSelector(src *fakeSource, store *fakeStore) *Selector {
	dir := NewDirectory(src, cache.NewMemory(time.Minute), time.Minute)
	return NewSelector(dir, store)
}

func membershipsOf(ids ...uint) []membershipRow {
	rows := make([]membershipRow, 0, len(ids))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rows = append(rows, membershipRow{
			TenantID:  id,
			Role:      "admin",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return rows
}

func tenantsOf(ids ...uint) map[uint]tenantRow {
	out := map[uint]tenantRow{}
	for _, id := range ids {
		out[id] = tenantRow{ID: id, Name: "T"}
	}
	return out
}

func TestResolve_ZeroMembershipsIsNoneAndClearsStore(t *testing.T) {
	src := &fakeSource{memberships: map[uint][]membershipRow{}}
	store := newFakeStore()
	stale := uint(10)
	store.rows[1] = &stale

	sel := newTestSelector(src, store)
	scope, ms, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeNone, scope.Mode)
	assert.Empty(t, ms)

	_, found, _ := store.Get(context.Background(), 1)
	assert.False(t, found, "stale selection should be cleared")
}

func TestResolve_SoleMembershipDefaultsToSingle(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10)},
		tenants:     tenantsOf(10),
	}
	store := newFakeStore()

	sel := newTestSelector(src, store)
	scope, _, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, scope.Mode)
	assert.Equal(t, uint(10), scope.TenantID)

	// The default selection is persisted so the next load resolves identically
	stored, found, _ := store.Get(context.Background(), 1)
	require.True(t, found)
	require.NotNil(t, stored)
	assert.Equal(t, uint(10), *stored)
}

func TestResolve_MultipleMembershipsDefaultToAll(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10, 20)},
		tenants:     tenantsOf(10, 20),
	}
	store := newFakeStore()

	sel := newTestSelector(src, store)
	scope, ms, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeAll, scope.Mode)
	assert.ElementsMatch(t, []uint{10, 20}, scope.TenantIDs(ms))

	stored, found, _ := store.Get(context.Background(), 1)
	require.True(t, found)
	assert.Nil(t, stored, "all-tenants default persists as nil")
}

func TestResolve_StoredSingleStillValid(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10, 20)},
		tenants:     tenantsOf(10, 20),
	}
	store := newFakeStore()
	sel := newTestSelector(src, store)

	_, err := sel.Select(context.Background(), 1, ptr(20))
	require.NoError(t, err)

	scope, _, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, scope.Mode)
	assert.Equal(t, uint(20), scope.TenantID)
}

func TestResolve_StaleSelectionFallsBackToAll(t *testing.T) {
	// User belonged to tenants 10 and 20, selected 20, then was removed
	// from it. The next resolve silently corrects to the aggregate view.
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10, 20)},
		tenants:     tenantsOf(10, 20),
	}
	store := newFakeStore()
	sel := newTestSelector(src, store)

	_, err := sel.Select(context.Background(), 1, ptr(20))
	require.NoError(t, err)

	src.memberships[1] = membershipsOf(10, 30)
	src.tenants = tenantsOf(10, 30)
	sel.dir.Invalidate(1)

	scope, _, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeAll, scope.Mode)

	// The correction is persisted; resolving again without membership
	// changes yields the same answer with no further writes.
	putsAfterFallback := store.puts
	scope2, _, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, scope, scope2)
	assert.Equal(t, putsAfterFallback, store.puts)
}

func TestResolve_StaleSelectionWithSoleRemainingMembership(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10, 20)},
		tenants:     tenantsOf(10, 20),
	}
	store := newFakeStore()
	sel := newTestSelector(src, store)

	_, err := sel.Select(context.Background(), 1, ptr(20))
	require.NoError(t, err)

	src.memberships[1] = membershipsOf(10)
	src.tenants = tenantsOf(10)
	sel.dir.Invalidate(1)

	scope, _, err := sel.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, scope.Mode)
	assert.Equal(t, uint(10), scope.TenantID)
}

func TestSelect_RejectsNonMemberBeforeAnyWrite(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10)},
		tenants:     tenantsOf(10),
	}
	store := newFakeStore()
	sel := newTestSelector(src, store)

	_, err := sel.Select(context.Background(), 1, ptr(99))
	assert.ErrorIs(t, err, ErrNotMember)
	assert.Zero(t, store.puts, "rejected selection must not touch the store")
}

func TestSelect_NilSelectsAll(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{1: membershipsOf(10, 20)},
		tenants:     tenantsOf(10, 20),
	}
	sel := newTestSelector(src, newFakeStore())

	scope, err := sel.Select(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeAll, scope.Mode)
}

func TestScopeTenantIDs(t *testing.T) {
	ms := []Membership{{TenantID: 10}, {TenantID: 20}}

	assert.Equal(t, []uint{20}, Scope{Mode: ModeSingle, TenantID: 20}.TenantIDs(ms))
	assert.Equal(t, []uint{10, 20}, Scope{Mode: ModeAll}.TenantIDs(ms))
	assert.Empty(t, Scope{Mode: ModeNone}.TenantIDs(ms))
}

func ptr(v uint) *uint { return &v }
