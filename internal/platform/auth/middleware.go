package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// Headers attached to authenticated requests for downstream handlers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

const (
	msgUnauthorized = "Unauthorized — provide a valid Bearer token in the Authorization header"
	msgForbidden    = "Forbidden — this endpoint requires admin privileges"
)

// Claims is the token payload issued by Supabase.
// The top-level role is Supabase's own ("authenticated"); the application
// role lives in app_metadata.
type Claims struct {
	jwt.RegisteredClaims
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// UserRole maps the claims to one of the two application roles.
func (c *Claims) UserRole() Role {
	if c.AppMetadata.Role == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

type JWTConfig struct {
	// SigningKey is the shared HS256 secret. When empty every protected
	// request is rejected.
	SigningKey []byte
	Policy     RoutePolicy
}

// JWTMiddleware enforces the route policy: public paths pass straight
// through, protected ones need a valid bearer token, and admin paths also
// need the admin role.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tier := cfg.Policy.TierFor(c.Request().URL.Path)
			if tier == TierPublic {
				return next(c)
			}

			claims, ok := verify(parser, cfg.SigningKey, c.Request().Header.Get("Authorization"))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
			}

			role := claims.UserRole()
			if err := Authorize(tier, role); err != nil {
				return err
			}

			req := c.Request()
			req.Header.Set(HeaderUserID, claims.Subject)
			req.Header.Set(HeaderUserRole, string(role))

			ctx := context.WithValue(req.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, role)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

func verify(parser *jwt.Parser, key []byte, header string) (*Claims, bool) {
	if len(key) == 0 || !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return nil, false
	}

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// RoleFromContext returns the caller's role, or "" on public routes.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(UserRoleKey).(Role)
	return role
}
