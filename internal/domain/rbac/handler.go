package rbac

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, gate *auth.Gate) {
	view := gate.RequirePermission(PermSettingsView)
	manage := gate.RequirePermission(PermSettingsUpdate)

	api.GET("/permissions", h.ListPermissions, view)
	api.GET("/permissions/check", h.CheckPermission)
	api.POST("/permissions/initialize", h.InitializeDefaults, manage)
	api.GET("/role-permissions", h.ListRolePermissions, view)
	api.GET("/role-permissions/:role", h.GetRolePermission, view)
	api.PUT("/role-permissions/:role", h.SetRolePermissions, manage)
}

func (h *Handler) ListPermissions(c echo.Context) error {
	perms, err := h.svc.ListPermissions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": perms})
}

func (h *Handler) ListRolePermissions(c echo.Context) error {
	items, err := h.svc.ListRolePermissions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": items})
}

func (h *Handler) GetRolePermission(c echo.Context) error {
	role, err := auth.ParseRole(c.Param("role"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rp, err := h.svc.GetRolePermission(c.Request().Context(), role)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no permissions configured for role")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rp)
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
	Description string   `json:"description"`
}

func (h *Handler) SetRolePermissions(c echo.Context) error {
	role, err := auth.ParseRole(c.Param("role"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req setRolePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserFromContext(c.Request().Context())
	rp, err := h.svc.SetRolePermissions(c.Request().Context(), actor, role, req.Permissions, req.Description)
	var unknown *UnknownPermissionsError
	if errors.As(err, &unknown) {
		return echo.NewHTTPError(http.StatusBadRequest, unknown.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rp)
}

// CheckPermission answers whether the caller's own role holds the named
// permission. It is not gated: any authenticated user may ask about itself.
func (h *Handler) CheckPermission(c echo.Context) error {
	name := c.QueryParam("permission")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permission query parameter required")
	}
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	has, err := h.svc.HasPermission(c.Request().Context(), user.Role, name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"hasPermission": has,
		"permission":    name,
		"role":          user.Role,
	})
}

func (h *Handler) InitializeDefaults(c echo.Context) error {
	actor := auth.UserFromContext(c.Request().Context())
	created, err := h.svc.InitializeDefaults(c.Request().Context(), actor)
	if errors.Is(err, ErrAlreadyInitialized) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "default permissions initialized",
		"created": created,
	})
}
