package model

import (
	"time"
)

// Membership roles. "admin" manages the tenant and its members,
// "financeiro" and "operacional" are write tiers, "leitura" is read-only.
const (
	RoleAdmin       = "admin"
	RoleFinanceiro  = "financeiro"
	RoleOperacional = "operacional"
	RoleLeitura     = "leitura"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFinanceiro, RoleOperacional, RoleLeitura:
		return true
	}
	return false
}

// TenantMembership associates a user with a tenant under a role.
// A user holds at most one membership per tenant.
type TenantMembership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_user;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_tenant_user;index;not null"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null;default:'leitura'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
