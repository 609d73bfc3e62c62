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

// ListContracts returns contracts across the caller's active tenant scope.
// Filters: status, client_id, expiring_days (data_fim within N days).
func ListContracts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "list")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"contracts": []model.Contract{}, "total": 0})
	}

	query := database.GetDB().Model(&model.Contract{}).Where("tenant_id IN ?", tenantIDs)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if days := c.QueryParam("expiring_days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid expiring_days"})
		}
		now := time.Now()
		query = query.Where("data_fim >= ? AND data_fim <= ?", now, now.AddDate(0, 0, n)).
			Where("status = ?", model.ContractAtivo)
	}
	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("numero ILIKE ? OR objeto ILIKE ?", pattern, pattern)
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
		log.Error("Failed to count contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contracts"})
	}

	var contracts []model.Contract
	if err := query.Preload("Client").
		Order("data_fim asc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&contracts).Error; err != nil {
		log.Error("Failed to list contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contracts"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contracts": contracts,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GetContract retrieves one contract with its client, scoped to the
// caller's tenants
func GetContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "get")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contract ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var contract model.Contract
	if err := database.GetDB().Preload("Client").
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&contract).Error; err != nil {
		log.Warn("Contract not found in scope", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	return c.JSON(http.StatusOK, contract)
}

// CreateContract creates a contract. The client must belong to the same
// tenant the contract is created in.
func CreateContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "create")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var contract model.Contract
	if err := c.Bind(&contract); err != nil {
		log.Error("Failed to parse contract creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	contract.Numero = strings.TrimSpace(contract.Numero)
	if contract.TenantID == 0 || contract.ClientID == 0 || contract.Numero == "" || contract.Objeto == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id, client_id, numero and objeto are required"})
	}
	if contract.DataFim.Before(contract.DataInicio) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data_fim must not precede data_inicio"})
	}
	if contract.Status == "" {
		contract.Status = model.ContractRascunho
	}

	if err := authorizeTenant(c, userID, contract.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant contract creation rejected",
				zap.Uint("user_id", userID),
				zap.Uint("tenant_id", contract.TenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	// The client link must stay inside the same tenant
	var client model.Client
	if err := database.GetDB().
		Where("id = ? AND tenant_id = ?", contract.ClientID, contract.TenantID).
		First(&client).Error; err != nil {
		log.Warn("Contract references client outside tenant",
			zap.Uint("client_id", contract.ClientID),
			zap.Uint("tenant_id", contract.TenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client not found in this tenant"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	contract.ID = 0
	if err := database.GetDB().Create(&contract).Error; err != nil {
		log.Error("Failed to create contract", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract"})
	}

	log.Info("Contract created",
		zap.Uint("id", contract.ID),
		zap.Uint("tenant_id", contract.TenantID),
		zap.String("numero", contract.Numero))

	return c.JSON(http.StatusCreated, contract)
}

// UpdateContract updates a contract's fields. tenant_id and client_id
// ownership are checked; tenant_id never changes.
func UpdateContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "update")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contract ID"})
	}

	var existing model.Contract
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant contract update rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("contract_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	var req model.Contract
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.ID = existing.ID
	req.TenantID = existing.TenantID
	req.CreatedAt = existing.CreatedAt
	if req.ClientID == 0 {
		req.ClientID = existing.ClientID
	}
	if req.ClientID != existing.ClientID {
		var client model.Client
		if err := database.GetDB().
			Where("id = ? AND tenant_id = ?", req.ClientID, existing.TenantID).
			First(&client).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "client not found in this tenant"})
		}
	}
	if req.Numero == "" {
		req.Numero = existing.Numero
	}
	if req.Objeto == "" {
		req.Objeto = existing.Objeto
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if req.DataInicio.IsZero() {
		req.DataInicio = existing.DataInicio
	}
	if req.DataFim.IsZero() {
		req.DataFim = existing.DataFim
	}
	if req.DataFim.Before(req.DataInicio) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data_fim must not precede data_inicio"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&req).Error; err != nil {
		log.Error("Failed to update contract", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}

	log.Info("Contract updated", zap.Uint("id", req.ID), zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusOK, req)
}

// DeleteContract soft deletes a contract after the tenant ownership check
func DeleteContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "delete")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contract ID"})
	}

	var existing model.Contract
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant contract delete rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("contract_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&existing).Error; err != nil {
		log.Error("Failed to delete contract", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contract"})
	}

	log.Info("Contract deleted", zap.Uint("id", existing.ID), zap.Uint("tenant_id", existing.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Contract deleted successfully"})
}
