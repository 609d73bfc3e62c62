package model

import (
	"time"
)

// Tenant represents an organization owning its own clients, contracts,
// invoices, documents and tasks. Tenants are never deleted through this
// service; removal is an administrative operation.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(64);uniqueIndex;not null"`
	Cnpj      string    `json:"cnpj,omitempty" gorm:"type:varchar(18)"`
	LogoURL   string    `json:"logo_url,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
