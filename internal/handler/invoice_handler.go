package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"licity-service/internal/model"
	"licity-service/internal/tenantscope"
	"licity-service/pkg/database"
	"licity-service/pkg/logger"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var competenciaRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ListInvoices returns invoices across the caller's active tenant scope.
// Filters: status, contract_id, client_id, competencia, overdue=true.
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "list")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"invoices": []model.Invoice{}, "total": 0})
	}

	query := database.GetDB().Model(&model.Invoice{}).Where("tenant_id IN ?", tenantIDs)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if contractID := c.QueryParam("contract_id"); contractID != "" {
		query = query.Where("contract_id = ?", contractID)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if competencia := c.QueryParam("competencia"); competencia != "" {
		if !competenciaRe.MatchString(competencia) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "competencia must be YYYY-MM"})
		}
		query = query.Where("competencia = ?", competencia)
	}
	if c.QueryParam("overdue") == "true" {
		query = query.Where("data_vencimento < ? AND status NOT IN ?",
			time.Now(), []string{model.InvoicePaga, model.InvoiceCancelada})
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
		log.Error("Failed to count invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invoices"})
	}

	var invoices []model.Invoice
	if err := query.Preload("Client").Preload("Contract").
		Order("data_vencimento asc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&invoices).Error; err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"invoices": invoices,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetInvoice retrieves one invoice, scoped to the caller's tenants
func GetInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "get")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invoice model.Invoice
	if err := database.GetDB().Preload("Client").Preload("Contract").
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&invoice).Error; err != nil {
		log.Warn("Invoice not found in scope", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	return c.JSON(http.StatusOK, invoice)
}

// CreateInvoice creates an invoice under a contract. The invoice inherits
// tenant and client from the contract row, never from the request body.
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "create")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var invoice model.Invoice
	if err := c.Bind(&invoice); err != nil {
		log.Error("Failed to parse invoice creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if invoice.ContractID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract_id is required"})
	}
	if !competenciaRe.MatchString(invoice.Competencia) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "competencia must be YYYY-MM"})
	}
	if invoice.DataVencimento.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data_vencimento is required"})
	}
	if invoice.ValorBruto <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valor_bruto must be positive"})
	}
	if invoice.Status == "" {
		invoice.Status = model.InvoiceAEmitir
	}

	var contract model.Contract
	if err := database.GetDB().First(&contract, invoice.ContractID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	if err := authorizeTenant(c, userID, contract.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant invoice creation rejected",
				zap.Uint("user_id", userID),
				zap.Uint("tenant_id", contract.TenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	invoice.ID = 0
	invoice.TenantID = contract.TenantID
	invoice.ClientID = contract.ClientID
	if invoice.ValorLiquido == 0 {
		invoice.ValorLiquido = invoice.ValorBruto
		if invoice.ValorImpostos != nil {
			invoice.ValorLiquido -= *invoice.ValorImpostos
		}
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&invoice).Error; err != nil {
		log.Error("Failed to create invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invoice"})
	}

	log.Info("Invoice created",
		zap.Uint("id", invoice.ID),
		zap.Uint("tenant_id", invoice.TenantID),
		zap.Uint("contract_id", invoice.ContractID),
		zap.String("competencia", invoice.Competencia))

	return c.JSON(http.StatusCreated, invoice)
}

// UpdateInvoice updates an invoice. tenant_id, contract_id and client_id
// stay fixed after creation.
func UpdateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "update")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	var existing model.Invoice
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant invoice update rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("invoice_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	var req model.Invoice
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.ID = existing.ID
	req.TenantID = existing.TenantID
	req.ContractID = existing.ContractID
	req.ClientID = existing.ClientID
	req.CreatedAt = existing.CreatedAt
	if req.Competencia == "" {
		req.Competencia = existing.Competencia
	} else if !competenciaRe.MatchString(req.Competencia) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "competencia must be YYYY-MM"})
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if req.DataVencimento.IsZero() {
		req.DataVencimento = existing.DataVencimento
	}
	if req.ValorBruto == 0 {
		req.ValorBruto = existing.ValorBruto
	}
	if req.ValorLiquido == 0 {
		req.ValorLiquido = existing.ValorLiquido
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&req).Error; err != nil {
		log.Error("Failed to update invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update invoice"})
	}

	log.Info("Invoice updated",
		zap.Uint("id", req.ID),
		zap.Uint("tenant_id", req.TenantID),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, req)
}

// DeleteInvoice soft deletes an invoice after the tenant ownership check
func DeleteInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "delete")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	var existing model.Invoice
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant invoice delete rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("invoice_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&existing).Error; err != nil {
		log.Error("Failed to delete invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete invoice"})
	}

	log.Info("Invoice deleted", zap.Uint("id", existing.ID), zap.Uint("tenant_id", existing.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice deleted successfully"})
}
