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
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListClients returns clients across the caller's active tenant scope,
// with optional status and free-text filters and page/limit pagination.
func ListClients(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "list")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"clients": []model.Client{}, "total": 0})
	}

	query := database.GetDB().Model(&model.Client{}).Where("tenant_id IN ?", tenantIDs)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("razao_social ILIKE ? OR nome_fantasia ILIKE ? OR cnpj ILIKE ?", pattern, pattern, pattern)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve clients"})
	}

	var clients []model.Client
	if err := query.Order("razao_social asc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&clients).Error; err != nil {
		log.Error("Failed to list clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve clients"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"clients": clients,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetClient retrieves one client, scoped to the caller's tenants
func GetClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "get")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var client model.Client
	if err := database.GetDB().
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&client).Error; err != nil {
		log.Warn("Client not found in scope", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	return c.JSON(http.StatusOK, client)
}

// CreateClient creates a client in a tenant the caller belongs to. The
// target tenant is checked against the membership set before any write.
func CreateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "create")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var client model.Client
	if err := c.Bind(&client); err != nil {
		log.Error("Failed to parse client creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	client.RazaoSocial = strings.TrimSpace(client.RazaoSocial)
	if client.RazaoSocial == "" || client.TenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "razao_social and tenant_id are required"})
	}
	if client.Status == "" {
		client.Status = model.ClientAtivo
	}

	if err := authorizeTenant(c, userID, client.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant client creation rejected",
				zap.Uint("user_id", userID),
				zap.Uint("tenant_id", client.TenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	client.ID = 0
	if err := database.GetDB().Create(&client).Error; err != nil {
		log.Error("Failed to create client", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create client"})
	}

	log.Info("Client created",
		zap.Uint("id", client.ID),
		zap.Uint("tenant_id", client.TenantID),
		zap.String("razao_social", client.RazaoSocial))

	return c.JSON(http.StatusCreated, client)
}

// UpdateClient updates a client's fields. The row's tenant_id never changes.
func UpdateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "update")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	var existing model.Client
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant client update rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("client_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	var req model.Client
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Keep identity and ownership fields fixed
	req.ID = existing.ID
	req.TenantID = existing.TenantID
	req.CreatedAt = existing.CreatedAt
	if strings.TrimSpace(req.RazaoSocial) == "" {
		req.RazaoSocial = existing.RazaoSocial
	}
	if req.Status == "" {
		req.Status = existing.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&req).Error; err != nil {
		log.Error("Failed to update client", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update client"})
	}

	log.Info("Client updated", zap.Uint("id", req.ID), zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusOK, req)
}

// DeleteClient soft deletes a client after the tenant ownership check
func DeleteClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "delete")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	var existing model.Client
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant client delete rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("client_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&existing).Error; err != nil {
		log.Error("Failed to delete client", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete client"})
	}

	log.Info("Client deleted", zap.Uint("id", existing.ID), zap.Uint("tenant_id", existing.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Client deleted successfully"})
}
