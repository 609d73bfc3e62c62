package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"licity-service/internal/model"
	"licity-service/internal/tenantscope"
	"licity-service/pkg/database"
	"licity-service/pkg/logger"
	"licity-service/pkg/slug"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTenant creates a new tenant together with its founding admin
// membership. Both inserts run in one transaction so a failed membership
// insert can never leave an orphaned tenant behind.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		prometheus.RecordAuthError("unauthorized_tenant_creation")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Parse request
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug,omitempty"`
		Cnpj string `json:"cnpj,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		log.Error("Invalid tenant data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	tenantSlug := strings.TrimSpace(req.Slug)
	if tenantSlug == "" {
		tenantSlug = slug.Generate(req.Name)
	}
	if !slug.Valid(tenantSlug) {
		log.Error("Invalid tenant slug", zap.String("slug", tenantSlug))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slug"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Begin transaction
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Create tenant
	tenant := model.Tenant{
		Name: req.Name,
		Slug: tenantSlug,
		Cnpj: strings.TrimSpace(req.Cnpj),
	}

	if result := tx.Create(&tenant); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	// Create the founding admin membership in the same transaction
	membership := model.TenantMembership{
		UserID:   userID,
		TenantID: tenant.ID,
		Role:     model.RoleAdmin,
	}

	if result := tx.Create(&membership); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create admin membership", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to link tenant to user"})
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	// The membership set changed, so the cached directory entry is stale
	tenantscope.Default().Directory.Invalidate(userID)

	log.Info("Tenant created",
		zap.String("name", tenant.Name),
		zap.String("slug", tenant.Slug),
		zap.Uint("id", tenant.ID),
		zap.Uint("creator_id", userID))

	return c.JSON(http.StatusCreated, tenant)
}

// ListUserTenants returns the caller's memberships joined with tenant
// display fields, ordered by membership creation time ascending.
func ListUserTenants(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	memberships, err := tenantscope.Default().Directory.List(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to retrieve user's tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	return c.JSON(http.StatusOK, memberships)
}

// GetTenant retrieves tenant details for a tenant the caller belongs to
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("access")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if err := authorizeTenant(c, userID, uint(id)); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Unauthorized tenant access attempt",
				zap.Uint("requesting_user_id", userID),
				zap.Uint64("tenant_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		log.Error("Failed to check tenant access", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		log.Error("Tenant not found", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant updates a tenant's display fields. The slug is immutable
// after creation; only name, cnpj and logo change here.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	role, err := tenantscope.Default().Directory.Role(c.Request().Context(), userID, uint(id))
	if err != nil || role != model.RoleAdmin {
		log.Warn("Unauthorized tenant update attempt",
			zap.Uint("requesting_user_id", userID),
			zap.Uint64("tenant_id", id))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}

	var req struct {
		Name    *string `json:"name"`
		Cnpj    *string `json:"cnpj"`
		LogoURL *string `json:"logo_url"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Cnpj != nil {
		updates["cnpj"] = strings.TrimSpace(*req.Cnpj)
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&model.Tenant{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Error("Failed to update tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tenant"})
	}

	// Display fields changed for every member's directory entry
	invalidateTenantMembers(uint(id))

	var tenant model.Tenant
	database.GetDB().First(&tenant, id)

	log.Info("Tenant updated", zap.Uint64("tenant_id", id), zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, tenant)
}

// AddUserToTenant adds a user to a tenant by email
func AddUserToTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("add_user")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Parse request
	var req struct {
		TenantID  uint   `json:"tenant_id"`
		UserEmail string `json:"user_email"`
		Role      string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse add user request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantID == 0 || req.UserEmail == "" {
		log.Error("Invalid request data",
			zap.Uint("tenant_id", req.TenantID),
			zap.String("user_email", req.UserEmail))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id and user_email are required"})
	}

	// Default role if not provided
	if req.Role == "" {
		req.Role = model.RoleLeitura
	}
	if !model.ValidRole(req.Role) {
		log.Error("Invalid role", zap.String("role", req.Role))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	// Only tenant admins manage members
	role, err := tenantscope.Default().Directory.Role(c.Request().Context(), userID, req.TenantID)
	if err != nil || role != model.RoleAdmin {
		log.Warn("Unauthorized attempt to add user to tenant",
			zap.Uint("requesting_user_id", userID),
			zap.Uint("tenant_id", req.TenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	// Find the user by email
	var user model.User
	if result := database.GetDB().Where("email = ?", req.UserEmail).First(&user); result.Error != nil {
		log.Error("User not found", zap.String("email", req.UserEmail))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	// A user holds at most one membership per tenant; update the role if
	// the membership already exists
	var existing model.TenantMembership
	result := database.GetDB().Where("user_id = ? AND tenant_id = ?", user.ID, req.TenantID).First(&existing)
	if result.Error == nil {
		if existing.Role != req.Role {
			existing.Role = req.Role
			if err := database.GetDB().Save(&existing).Error; err != nil {
				log.Error("Failed to update user role in tenant", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user role"})
			}
			tenantscope.Default().Directory.Invalidate(user.ID)
			log.Info("Updated user role in tenant",
				zap.Uint("tenant_id", req.TenantID),
				zap.String("user_email", req.UserEmail),
				zap.String("role", req.Role))
		}

		return c.JSON(http.StatusOK, echo.Map{
			"message":    "User role updated in tenant",
			"membership": existing,
		})
	}

	membership := model.TenantMembership{
		UserID:   user.ID,
		TenantID: req.TenantID,
		Role:     req.Role,
	}

	if err := database.GetDB().Create(&membership).Error; err != nil {
		log.Error("Failed to add user to tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add user to tenant"})
	}

	tenantscope.Default().Directory.Invalidate(user.ID)
	go updateMembershipCount(req.TenantID)

	log.Info("Added user to tenant",
		zap.Uint("tenant_id", req.TenantID),
		zap.String("user_email", req.UserEmail),
		zap.String("role", req.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "User added to tenant successfully",
		"membership": membership,
	})
}

// RemoveUserFromTenant removes a user from a tenant
func RemoveUserFromTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("remove_user")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := strconv.ParseUint(c.Param("tenant_id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	targetUserID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		log.Error("Invalid user ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	role, err := tenantscope.Default().Directory.Role(c.Request().Context(), userID, uint(tenantID))
	if err != nil || role != model.RoleAdmin {
		log.Warn("Unauthorized attempt to remove user from tenant",
			zap.Uint("requesting_user_id", userID),
			zap.Uint64("tenant_id", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	// The last admin cannot remove themselves, or the tenant becomes
	// unmanageable
	if uint(targetUserID) == userID {
		var adminCount int64
		database.GetDB().Model(&model.TenantMembership{}).
			Where("tenant_id = ? AND role = ?", tenantID, model.RoleAdmin).
			Count(&adminCount)
		if adminCount <= 1 {
			log.Warn("Attempted to remove the last admin",
				zap.Uint64("tenant_id", tenantID),
				zap.Uint64("user_id", targetUserID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot remove the last admin of a tenant"})
		}
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().
		Where("user_id = ? AND tenant_id = ?", targetUserID, tenantID).
		Delete(&model.TenantMembership{})
	if result.Error != nil {
		log.Error("Failed to remove user from tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove user from tenant"})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found in this tenant"})
	}

	tenantscope.Default().Directory.Invalidate(uint(targetUserID))
	go updateMembershipCount(uint(tenantID))

	log.Info("Removed user from tenant",
		zap.Uint64("tenant_id", tenantID),
		zap.Uint64("user_id", targetUserID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User removed from tenant successfully",
	})
}

// invalidateTenantMembers drops the cached directory entry of every member
// of a tenant after its display fields changed.
func invalidateTenantMembers(tenantID uint) {
	var memberships []model.TenantMembership
	if err := database.GetDB().Where("tenant_id = ?", tenantID).Find(&memberships).Error; err != nil {
		return
	}
	for _, m := range memberships {
		tenantscope.Default().Directory.Invalidate(m.UserID)
	}
}

// Helper function to update membership count metrics
func updateMembershipCount(tenantID uint) {
	var tenant model.Tenant
	if err := database.GetDB().Select("name").First(&tenant, tenantID).Error; err != nil {
		return
	}

	var count int64
	database.GetDB().Model(&model.TenantMembership{}).
		Where("tenant_id = ?", tenantID).
		Count(&count)

	prometheus.UpdateMembershipsPerTenant(tenantID, tenant.Name, int(count))
}
