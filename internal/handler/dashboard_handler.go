package handler

import (
	"fmt"
	"net/http"
	"time"

	"licity-service/internal/model"
	"licity-service/pkg/database"
	"licity-service/pkg/logger"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DashboardMetrics aggregates the home-screen numbers over the caller's
// active scope: active contracts, contracts expiring within 30 days,
// invoices to issue, overdue invoices, receivables for the current month
// and open tasks.
func DashboardMetrics(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("dashboard", "metrics")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"active_contracts":   0,
			"expiring_contracts": 0,
			"invoices_to_issue":  0,
			"overdue_invoices":   0,
			"receivables_month":  0.0,
			"open_tasks":         0,
		})
	}

	db := database.GetDB()
	now := time.Now()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var activeContracts int64
	db.Model(&model.Contract{}).
		Where("tenant_id IN ? AND status = ?", tenantIDs, model.ContractAtivo).
		Count(&activeContracts)

	var expiringContracts int64
	db.Model(&model.Contract{}).
		Where("tenant_id IN ? AND status = ? AND data_fim >= ? AND data_fim <= ?",
			tenantIDs, model.ContractAtivo, now, now.AddDate(0, 0, 30)).
		Count(&expiringContracts)

	var invoicesToIssue int64
	db.Model(&model.Invoice{}).
		Where("tenant_id IN ? AND status = ?", tenantIDs, model.InvoiceAEmitir).
		Count(&invoicesToIssue)

	var overdueInvoices int64
	db.Model(&model.Invoice{}).
		Where("tenant_id IN ? AND data_vencimento < ? AND status NOT IN ?",
			tenantIDs, now, []string{model.InvoicePaga, model.InvoiceCancelada}).
		Count(&overdueInvoices)

	// Receivables: unpaid invoices falling due inside the current month
	competencia := fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	var receivables float64
	db.Model(&model.Invoice{}).
		Where("tenant_id IN ? AND data_vencimento >= ? AND data_vencimento < ? AND status NOT IN ?",
			tenantIDs, monthStart, monthEnd, []string{model.InvoicePaga, model.InvoiceCancelada}).
		Select("COALESCE(SUM(valor_liquido), 0)").
		Scan(&receivables)

	var openTasks int64
	db.Model(&model.Task{}).
		Where("tenant_id IN ? AND status IN ?",
			tenantIDs, []string{model.TaskPendente, model.TaskEmAndamento}).
		Count(&openTasks)

	return c.JSON(http.StatusOK, echo.Map{
		"active_contracts":   activeContracts,
		"expiring_contracts": expiringContracts,
		"invoices_to_issue":  invoicesToIssue,
		"overdue_invoices":   overdueInvoices,
		"receivables_month":  receivables,
		"competencia":        competencia,
		"open_tasks":         openTasks,
	})
}

// SidebarCounts returns the badge number for one sidebar section, selected
// by the type query parameter.
func SidebarCounts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("dashboard", "sidebar")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}

	countType := c.QueryParam("type")
	if countType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type is required"})
	}

	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"type": countType, "count": 0})
	}

	db := database.GetDB()
	now := time.Now()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	switch countType {
	case "clients":
		db.Model(&model.Client{}).
			Where("tenant_id IN ? AND status = ?", tenantIDs, model.ClientAtivo).
			Count(&count)
	case "contracts":
		db.Model(&model.Contract{}).
			Where("tenant_id IN ? AND status = ?", tenantIDs, model.ContractAtivo).
			Count(&count)
	case "invoices":
		db.Model(&model.Invoice{}).
			Where("tenant_id IN ? AND status = ?", tenantIDs, model.InvoiceAEmitir).
			Count(&count)
	case "tasks":
		db.Model(&model.Task{}).
			Where("tenant_id IN ? AND status IN ?",
				tenantIDs, []string{model.TaskPendente, model.TaskEmAndamento}).
			Count(&count)
	case "documents":
		db.Model(&model.Document{}).
			Where("tenant_id IN ? AND validade IS NOT NULL AND validade >= ? AND validade <= ?",
				tenantIDs, now, now.AddDate(0, 0, 30)).
			Count(&count)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown type"})
	}

	return c.JSON(http.StatusOK, echo.Map{"type": countType, "count": count})
}
