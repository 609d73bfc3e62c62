package tenantscope

import (
	"context"
	"errors"

	"licity-service/internal/model"

	"gorm.io/gorm"
)

// gormSource reads memberships and tenants from the database.
type gormSource struct {
	db *gorm.DB
}

func (s gormSource) MembershipsByUser(ctx context.Context, userID uint) ([]membershipRow, error) {
	var memberships []model.TenantMembership
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&memberships)
	if result.Error != nil {
		return nil, result.Error
	}

	rows := make([]membershipRow, 0, len(memberships))
	for _, m := range memberships {
		rows = append(rows, membershipRow{
			TenantID:  m.TenantID,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
		})
	}
	return rows, nil
}

func (s gormSource) TenantsByID(ctx context.Context, ids []uint) ([]tenantRow, error) {
	var tenants []model.Tenant
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tenants)
	if result.Error != nil {
		return nil, result.Error
	}

	rows := make([]tenantRow, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, tenantRow{
			ID:      t.ID,
			Name:    t.Name,
			Slug:    t.Slug,
			Cnpj:    t.Cnpj,
			LogoURL: t.LogoURL,
		})
	}
	return rows, nil
}

// gormStore persists the scope selection row.
type gormStore struct {
	db *gorm.DB
}

func (s gormStore) Get(ctx context.Context, userID uint) (*uint, bool, error) {
	var row model.ScopeSelection
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, result.Error
	}
	return row.TenantID, true, nil
}

func (s gormStore) Put(ctx context.Context, userID uint, tenantID *uint) error {
	db := s.db.WithContext(ctx)

	var row model.ScopeSelection
	result := db.Where("user_id = ?", userID).First(&row)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}
		return db.Create(&model.ScopeSelection{UserID: userID, TenantID: tenantID}).Error
	}

	return db.Model(&row).Update("tenant_id", tenantID).Error
}

func (s gormStore) Delete(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.ScopeSelection{}).Error
}
