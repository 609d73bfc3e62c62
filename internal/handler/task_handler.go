package handler

import (
	"errors"
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

var (
	errContractNotInTenant = errors.New("contract not found in this tenant")
	errClientNotInTenant   = errors.New("client not found in this tenant")
	errInvoiceNotInTenant  = errors.New("invoice not found in this tenant")
)

// ListTasks returns tasks across the caller's active tenant scope.
// Filters: status, type, contract_id, client_id, assigned_to.
func ListTasks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "list")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"tasks": []model.Task{}, "total": 0})
	}

	query := database.GetDB().Model(&model.Task{}).Where("tenant_id IN ?", tenantIDs)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if taskType := c.QueryParam("type"); taskType != "" {
		query = query.Where("type = ?", taskType)
	}
	if contractID := c.QueryParam("contract_id"); contractID != "" {
		query = query.Where("contract_id = ?", contractID)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if assignedTo := c.QueryParam("assigned_to"); assignedTo != "" {
		query = query.Where("assigned_to = ?", assignedTo)
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
		log.Error("Failed to count tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tasks"})
	}

	var tasks []model.Task
	if err := query.Order("due_date asc NULLS LAST").
		Offset((page - 1) * limit).Limit(limit).
		Find(&tasks).Error; err != nil {
		log.Error("Failed to list tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tasks"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tasks": tasks,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// CalendarTasks returns tasks with a due date inside [from, to], across
// the active scope. Both bounds are required, formatted as YYYY-MM-DD.
func CalendarTasks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "calendar")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"tasks": []model.Task{}})
	}

	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tasks []model.Task
	if err := database.GetDB().
		Where("tenant_id IN ? AND due_date >= ? AND due_date <= ?", tenantIDs, from, to).
		Order("due_date asc").
		Find(&tasks).Error; err != nil {
		log.Error("Failed to list calendar tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tasks"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// GetTask retrieves one task, scoped to the caller's tenants
func GetTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "get")

	tenantIDs, err := scopedTenantIDs(c)
	if err != nil {
		log.Error("Failed to resolve tenant scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}
	if len(tenantIDs) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var task model.Task
	if err := database.GetDB().
		Where("id = ? AND tenant_id IN ?", id, tenantIDs).
		First(&task).Error; err != nil {
		log.Warn("Task not found in scope", zap.Uint64("id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	return c.JSON(http.StatusOK, task)
}

// CreateTask creates a task in a tenant the caller belongs to. Linked
// contract, client and invoice rows must live in the same tenant.
func CreateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "create")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var task model.Task
	if err := c.Bind(&task); err != nil {
		log.Error("Failed to parse task creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" || task.TenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and tenant_id are required"})
	}
	if task.Type == "" {
		task.Type = model.TaskOutros
	}
	if task.Status == "" {
		task.Status = model.TaskPendente
	}

	if err := authorizeTenant(c, userID, task.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant task creation rejected",
				zap.Uint("user_id", userID),
				zap.Uint("tenant_id", task.TenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	if err := validateTaskLinks(&task); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	task.ID = 0
	task.CreatedBy = userID
	task.CompletedAt = nil

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&task).Error; err != nil {
		log.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	log.Info("Task created",
		zap.Uint("id", task.ID),
		zap.Uint("tenant_id", task.TenantID),
		zap.String("type", task.Type))

	return c.JSON(http.StatusCreated, task)
}

// UpdateTask updates a task. Completing a task stamps completed_at;
// reopening clears it. tenant_id and created_by stay fixed.
func UpdateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "update")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var existing model.Task
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant task update rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("task_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	var req model.Task
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.ID = existing.ID
	req.TenantID = existing.TenantID
	req.CreatedBy = existing.CreatedBy
	req.CreatedAt = existing.CreatedAt
	if strings.TrimSpace(req.Title) == "" {
		req.Title = existing.Title
	}
	if req.Type == "" {
		req.Type = existing.Type
	}
	if req.Status == "" {
		req.Status = existing.Status
	}

	if err := validateTaskLinks(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	switch {
	case req.Status == model.TaskConcluida && existing.Status != model.TaskConcluida:
		now := time.Now()
		req.CompletedAt = &now
	case req.Status != model.TaskConcluida:
		req.CompletedAt = nil
	default:
		req.CompletedAt = existing.CompletedAt
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&req).Error; err != nil {
		log.Error("Failed to update task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	log.Info("Task updated",
		zap.Uint("id", req.ID),
		zap.Uint("tenant_id", req.TenantID),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, req)
}

// DeleteTask soft deletes a task after the tenant ownership check
func DeleteTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("task", "delete")

	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	var existing model.Task
	if err := database.GetDB().First(&existing, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	if err := authorizeTenant(c, userID, existing.TenantID); err != nil {
		if err == tenantscope.ErrNotMember {
			log.Warn("Cross-tenant task delete rejected",
				zap.Uint("user_id", userID),
				zap.Uint64("task_id", id))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check access"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&existing).Error; err != nil {
		log.Error("Failed to delete task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete task"})
	}

	log.Info("Task deleted", zap.Uint("id", existing.ID), zap.Uint("tenant_id", existing.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

// validateTaskLinks checks that every linked row belongs to the task's
// own tenant.
func validateTaskLinks(task *model.Task) error {
	db := database.GetDB()
	if task.ContractID != nil {
		var n int64
		db.Model(&model.Contract{}).
			Where("id = ? AND tenant_id = ?", *task.ContractID, task.TenantID).
			Count(&n)
		if n == 0 {
			return errContractNotInTenant
		}
	}
	if task.ClientID != nil {
		var n int64
		db.Model(&model.Client{}).
			Where("id = ? AND tenant_id = ?", *task.ClientID, task.TenantID).
			Count(&n)
		if n == 0 {
			return errClientNotInTenant
		}
	}
	if task.InvoiceID != nil {
		var n int64
		db.Model(&model.Invoice{}).
			Where("id = ? AND tenant_id = ?", *task.InvoiceID, task.TenantID).
			Count(&n)
		if n == 0 {
			return errInvoiceNotInTenant
		}
	}
	return nil
}
