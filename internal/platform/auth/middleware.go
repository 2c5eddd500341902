package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims are the token claims issued by the upstream authentication service.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// JWTConfig configures bearer-token validation.
type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
	// Skipper, when set, bypasses validation for matching requests.
	Skipper func(echo.Context) bool
}

// JWTMiddleware validates the Authorization bearer token and attaches the
// resolved User to the request context. Tokens carrying a role outside the
// closed enumeration are rejected.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			role, err := ParseRole(claims.Role)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token role")
			}

			user := &User{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
				Role:  role,
			}
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))

			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development that treats
// every request as an admin user when no token is supplied. An optional
// skipper leaves matching requests anonymous.
func DevAuthMiddleware(skipper ...func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, skip := range skipper {
				if skip != nil && skip(c) {
					return next(c)
				}
			}
			if UserFromContext(c.Request().Context()) == nil {
				user := &User{
					ID:    "dev-user",
					Email: "dev@localhost",
					Name:  "Development User",
					Role:  RoleAdmin,
				}
				c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			}
			return next(c)
		}
	}
}
