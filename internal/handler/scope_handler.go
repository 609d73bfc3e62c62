package handler

import (
	"net/http"
	"time"

	"licity-service/internal/tenantscope"
	"licity-service/pkg/logger"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetScope resolves and returns the caller's active tenant scope together
// with the membership list the UI needs to render the switcher.
func GetScope(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordScopeOperation("resolve")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	scope, memberships, err := tenantscope.Default().Selector.Resolve(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to resolve scope", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve scope"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"scope":           scope,
		"tenants":         memberships,
		"has_memberships": len(memberships) > 0,
	})
}

// SelectScope persists a new scope selection. A null tenant_id selects the
// aggregate view over every tenant the caller belongs to.
func SelectScope(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordScopeOperation("select")

	userID, ok := userIDFrom(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		TenantID *uint `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse scope selection request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	scope, err := tenantscope.Default().Selector.Select(c.Request().Context(), userID, req.TenantID)
	if err != nil {
		if err == tenantscope.ErrNotMember {
			prometheus.CrossTenantRejectCounter.Inc()
			log.Warn("Scope selection rejected",
				zap.Uint("user_id", userID),
				zap.Uintp("tenant_id", req.TenantID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this tenant"})
		}
		log.Error("Failed to persist scope selection", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to select scope"})
	}

	log.Info("Scope selected",
		zap.Uint("user_id", userID),
		zap.String("mode", string(scope.Mode)),
		zap.Uint("tenant_id", scope.TenantID))

	return c.JSON(http.StatusOK, echo.Map{"scope": scope})
}
