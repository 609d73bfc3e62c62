package handler

import (
	"net/http"

	"licity-service/internal/tenantscope"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
)

// userIDFrom extracts the authenticated user id set by AuthMiddleware.
func userIDFrom(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}

// scopedTenantIDs resolves the caller's active scope to the concrete tenant
// id set every list query must filter by. An empty set means the query must
// short-circuit to an empty result without touching the database.
func scopedTenantIDs(c echo.Context) ([]uint, error) {
	userID, ok := userIDFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	scope, memberships, err := tenantscope.Default().Selector.Resolve(c.Request().Context(), userID)
	if err != nil {
		return nil, err
	}
	ids := scope.TenantIDs(memberships)
	if len(ids) == 0 {
		prometheus.EmptyScopeShortCircuits.Inc()
	}
	return ids, nil
}

// authorizeTenant rejects a mutation naming a tenant outside the caller's
// membership set, before anything touches the database.
func authorizeTenant(c echo.Context, userID, tenantID uint) error {
	err := tenantscope.Default().Directory.Authorize(c.Request().Context(), userID, tenantID)
	if err == tenantscope.ErrNotMember {
		prometheus.CrossTenantRejectCounter.Inc()
	}
	return err
}
