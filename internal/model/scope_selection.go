package model

import (
	"time"
)

// ScopeSelection persists a user's active tenant scope across sessions.
// One row per user; a nil TenantID means "all tenants". The tenantscope
// selector is the only writer of this table.
type ScopeSelection struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	TenantID  *uint     `json:"tenant_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
