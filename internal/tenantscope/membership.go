// Package tenantscope owns the tenant-visibility subsystem: which tenants the
// current user belongs to (the membership directory) and which of them the user
// is actively viewing (the scope selector). Every tenant-scoped query in the
// service is parameterized by the tenant id set this package resolves.
package tenantscope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"licity-service/pkg/cache"
)

// PlaceholderTenantName labels a membership whose tenant row is missing.
const PlaceholderTenantName = "Sem nome"

// ErrNotMember is returned when an operation names a tenant outside the
// user's current membership set.
var ErrNotMember = errors.New("tenant is not in the user's memberships")

// Membership is a membership row joined with its tenant's display fields.
type Membership struct {
	TenantID  uint      `json:"tenant_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Cnpj      string    `json:"cnpj,omitempty"`
	LogoURL   string    `json:"logo_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// membershipSource provides the raw rows the directory joins. Memberships
// must come back ordered by membership creation time ascending.
type membershipSource interface {
	MembershipsByUser(ctx context.Context, userID uint) ([]membershipRow, error)
	TenantsByID(ctx context.Context, ids []uint) ([]tenantRow, error)
}

type membershipRow struct {
	TenantID  uint
	Role      string
	CreatedAt time.Time
}

type tenantRow struct {
	ID      uint
	Name    string
	Slug    string
	Cnpj    string
	LogoURL string
}

// Directory resolves and caches the ordered membership list per user.
type Directory struct {
	src   membershipSource
	cache cache.Cache
	ttl   time.Duration
}

func NewDirectory(src membershipSource, c cache.Cache, ttl time.Duration) *Directory {
	return &Directory{src: src, cache: c, ttl: ttl}
}

func membershipsKey(userID uint) string {
	return fmt.Sprintf("memberships:%d", userID)
}

// List returns the user's memberships joined with tenant display fields,
// ordered by membership creation time ascending. Zero memberships is an
// empty slice, not an error. A membership whose tenant row cannot be found
// degrades to a placeholder name rather than being dropped.
func (d *Directory) List(ctx context.Context, userID uint) ([]Membership, error) {
	if b, ok := d.cache.Get(membershipsKey(userID)); ok {
		var cached []Membership
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := d.src.MembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(rows) == 0 {
		return []Membership{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TenantID)
	}

	tenants, err := d.src.TenantsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list membership tenants: %w", err)
	}
	byID := make(map[uint]tenantRow, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}

	out := make([]Membership, 0, len(rows))
	for _, r := range rows {
		m := Membership{
			TenantID:  r.TenantID,
			Name:      PlaceholderTenantName,
			Role:      r.Role,
			CreatedAt: r.CreatedAt,
		}
		if t, ok := byID[r.TenantID]; ok {
			m.Name = t.Name
			m.Slug = t.Slug
			m.Cnpj = t.Cnpj
			m.LogoURL = t.LogoURL
		}
		out = append(out, m)
	}

	if b, err := json.Marshal(out); err == nil {
		d.cache.Set(membershipsKey(userID), b, d.ttl)
	}
	return out, nil
}

// Invalidate drops the cached membership list for a user. Called whenever a
// tenant is created or updated or a membership changes.
func (d *Directory) Invalidate(userID uint) {
	d.cache.Delete(membershipsKey(userID))
}

// Authorize returns ErrNotMember unless tenantID is in the user's current
// membership set.
func (d *Directory) Authorize(ctx context.Context, userID, tenantID uint) error {
	ms, err := d.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range ms {
		if m.TenantID == tenantID {
			return nil
		}
	}
	return ErrNotMember
}

// Role returns the user's role in a tenant, or ErrNotMember.
func (d *Directory) Role(ctx context.Context, userID, tenantID uint) (string, error) {
	ms, err := d.List(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, m := range ms {
		if m.TenantID == tenantID {
			return m.Role, nil
		}
	}
	return "", ErrNotMember
}
