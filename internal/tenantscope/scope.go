package tenantscope

import (
	"context"
)

// Mode is the scope state: no memberships at all, the aggregate view over
// every tenant the user belongs to, or one specific tenant.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeAll    Mode = "all"
	ModeSingle Mode = "single"
)

// Scope is the active tenant filter applied to all data views.
type Scope struct {
	Mode     Mode `json:"mode"`
	TenantID uint `json:"tenant_id,omitempty"` // set when Mode == ModeSingle
}

// TenantIDs resolves the scope against a membership list to the concrete
// id set every list query must filter by. Empty means no query at all.
func (s Scope) TenantIDs(memberships []Membership) []uint {
	switch s.Mode {
	case ModeSingle:
		return []uint{s.TenantID}
	case ModeAll:
		ids := make([]uint, 0, len(memberships))
		for _, m := range memberships {
			ids = append(ids, m.TenantID)
		}
		return ids
	default:
		return nil
	}
}

// selectionStore persists the single scope-selection row per user. The
// Selector is the only writer.
type selectionStore interface {
	// Get returns the stored tenant id (nil meaning "all tenants") and
	// whether a selection exists at all.
	Get(ctx context.Context, userID uint) (tenantID *uint, found bool, err error)
	Put(ctx context.Context, userID uint, tenantID *uint) error
	Delete(ctx context.Context, userID uint) error
}

// Selector owns the active scope per user, persisted across sessions.
type Selector struct {
	dir   *Directory
	store selectionStore
}

func NewSelector(dir *Directory, store selectionStore) *Selector {
	return &Selector{dir: dir, store: store}
}

// Resolve loads the user's memberships and returns the active scope,
// silently correcting a stale persisted selection:
//
//   - zero memberships: ModeNone, any stored selection is cleared
//   - stored tenant still in the membership set: ModeSingle(that tenant)
//   - stored "all": ModeAll
//   - nothing stored, or stored tenant no longer in scope: ModeSingle of the
//     sole membership when there is exactly one, ModeAll otherwise; the
//     corrected value is persisted so the next load resolves identically.
//
// The second return is the membership list, so callers resolve scope and
// memberships in one round trip.
func (s *Selector) Resolve(ctx context.Context, userID uint) (Scope, []Membership, error) {
	memberships, err := s.dir.List(ctx, userID)
	if err != nil {
		return Scope{Mode: ModeNone}, nil, err
	}

	if len(memberships) == 0 {
		if err := s.store.Delete(ctx, userID); err != nil {
			return Scope{Mode: ModeNone}, memberships, err
		}
		return Scope{Mode: ModeNone}, memberships, nil
	}

	stored, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return Scope{Mode: ModeNone}, memberships, err
	}

	if found {
		if stored == nil {
			return Scope{Mode: ModeAll}, memberships, nil
		}
		for _, m := range memberships {
			if m.TenantID == *stored {
				return Scope{Mode: ModeSingle, TenantID: *stored}, memberships, nil
			}
		}
		// Stored selection refers to a tenant the user no longer belongs
		// to; fall through to the default and persist the correction.
	}

	scope := defaultScope(memberships)
	var persist *uint
	if scope.Mode == ModeSingle {
		id := scope.TenantID
		persist = &id
	}
	if err := s.store.Put(ctx, userID, persist); err != nil {
		return Scope{Mode: ModeNone}, memberships, err
	}
	return scope, memberships, nil
}

// Select persists a new scope: a nil tenantID selects all tenants. A tenant
// outside the membership set is rejected with ErrNotMember before any write.
func (s *Selector) Select(ctx context.Context, userID uint, tenantID *uint) (Scope, error) {
	if tenantID != nil {
		if err := s.dir.Authorize(ctx, userID, *tenantID); err != nil {
			return Scope{}, err
		}
	}
	if err := s.store.Put(ctx, userID, tenantID); err != nil {
		return Scope{}, err
	}
	if tenantID != nil {
		return Scope{Mode: ModeSingle, TenantID: *tenantID}, nil
	}
	return Scope{Mode: ModeAll}, nil
}

func defaultScope(memberships []Membership) Scope {
	if len(memberships) == 1 {
		return Scope{Mode: ModeSingle, TenantID: memberships[0].TenantID}
	}
	return Scope{Mode: ModeAll}
}
