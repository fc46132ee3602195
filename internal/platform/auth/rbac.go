package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Authorize checks an authenticated role against a route tier.
func Authorize(tier Tier, role Role) error {
	if tier == TierAdmin && role != RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, msgForbidden)
	}
	return nil
}
