package tenantscope

import (
	"context"
	"errors"
	"testing"
	"time"

	"licity-service/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	memberships map[uint][]membershipRow
	tenants     map[uint]tenantRow
	listCalls   int
	err         error
}

func (f *fakeSource) MembershipsByUser(ctx context.Context, userID uint) ([]membershipRow, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.memberships[userID], nil
}

func (f *fakeSource) TenantsByID(ctx context.Context, ids []uint) ([]tenantRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]tenantRow, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.tenants[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestDirectory(src *fakeSource) *Directory {
	return NewDirectory(src, cache.NewMemory(time.Minute), time.Minute)
}

func TestDirectoryList_JoinsTenantFields(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{
		memberships: map[uint][]membershipRow{
			1: {
				{TenantID: 10, Role: "admin", CreatedAt: base},
				{TenantID: 20, Role: "leitura", CreatedAt: base.Add(time.Hour)},
			},
		},
		tenants: map[uint]tenantRow{
			10: {ID: 10, Name: "Alfa Ltda", Slug: "alfa", Cnpj: "12.345.678/0001-00"},
			20: {ID: 20, Name: "Beta SA", Slug: "beta"},
		},
	}
	dir := newTestDirectory(src)

	ms, err := dir.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ms, 2)

	// Order follows membership creation time, not tenant id or name
	assert.Equal(t, uint(10), ms[0].TenantID)
	assert.Equal(t, "Alfa Ltda", ms[0].Name)
	assert.Equal(t, "admin", ms[0].Role)
	assert.Equal(t, uint(20), ms[1].TenantID)
	assert.Equal(t, "beta", ms[1].Slug)
}

func TestDirectoryList_MissingTenantGetsPlaceholder(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{
			1: {{TenantID: 99, Role: "admin", CreatedAt: time.Now()}},
		},
		tenants: map[uint]tenantRow{},
	}
	dir := newTestDirectory(src)

	ms, err := dir.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, PlaceholderTenantName, ms[0].Name)
	assert.Equal(t, uint(99), ms[0].TenantID)
}

func TestDirectoryList_ZeroMembershipsIsEmptyNotError(t *testing.T) {
	dir := newTestDirectory(&fakeSource{memberships: map[uint][]membershipRow{}})

	ms, err := dir.List(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, ms)
	assert.Empty(t, ms)
}

func TestDirectoryList_CachesUntilInvalidated(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{
			1: {{TenantID: 10, Role: "admin", CreatedAt: time.Now()}},
		},
		tenants: map[uint]tenantRow{10: {ID: 10, Name: "Alfa"}},
	}
	dir := newTestDirectory(src)

	_, err := dir.List(context.Background(), 1)
	require.NoError(t, err)
	_, err = dir.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, src.listCalls, "second call should hit the cache")

	dir.Invalidate(1)
	_, err = dir.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls, "invalidation should force a reload")
}

func TestDirectoryAuthorize(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{
			1: {{TenantID: 10, Role: "financeiro", CreatedAt: time.Now()}},
		},
		tenants: map[uint]tenantRow{10: {ID: 10, Name: "Alfa"}},
	}
	dir := newTestDirectory(src)

	assert.NoError(t, dir.Authorize(context.Background(), 1, 10))
	assert.ErrorIs(t, dir.Authorize(context.Background(), 1, 20), ErrNotMember)
}

func TestDirectoryRole(t *testing.T) {
	src := &fakeSource{
		memberships: map[uint][]membershipRow{
			1: {{TenantID: 10, Role: "financeiro", CreatedAt: time.Now()}},
		},
		tenants: map[uint]tenantRow{10: {ID: 10, Name: "Alfa"}},
	}
	dir := newTestDirectory(src)

	role, err := dir.Role(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "financeiro", role)

	_, err = dir.Role(context.Background(), 1, 20)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestDirectoryList_SourceErrorPropagates(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	dir := newTestDirectory(src)

	_, err := dir.List(context.Background(), 1)
	assert.Error(t, err)
}
