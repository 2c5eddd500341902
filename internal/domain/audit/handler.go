package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
	"github.com/Alimaster30/psc-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, gate *auth.Gate) {
	view := gate.RequirePermission("audit_log_view")
	api.GET("/audit-logs", h.ListLogs, view)
	api.GET("/audit-logs/stats", h.GetStats, view)
	api.GET("/audit-logs/export", h.ExportCSV, gate.RequirePermission("audit_log_export"))
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func (h *Handler) ListLogs(c echo.Context) error {
	f := Filter{
		Action:   c.QueryParam("action"),
		Severity: c.QueryParam("severity"),
		Resource: c.QueryParam("resource"),
		UserID:   c.QueryParam("userId"),
		Search:   c.QueryParam("search"),
	}
	var err error
	if f.StartDate, err = parseDate(c.QueryParam("startDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if f.EndDate, err = parseDate(c.QueryParam("endDate")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) GetStats(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "7d"
	}
	st, err := h.svc.StatsForPeriod(c.Request().Context(), period)
	if errors.Is(err, ErrInvalidPeriod) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

var csvHeader = []string{
	"Timestamp", "User", "Email", "Role", "Action", "Resource",
	"Resource ID", "Details", "Severity", "IP Address", "Success",
	"Error Message",
}

func (h *Handler) ExportCSV(c echo.Context) error {
	start, err := parseDate(c.QueryParam("startDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	end, err := parseDate(c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items, err := h.svc.ListRange(c.Request().Context(), start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="audit-logs-%s.csv"`, time.Now().UTC().Format("2006-01-02")))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range items {
		success := "Yes"
		if e.Success != nil && !*e.Success {
			success = "No"
		}
		record := []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.UserName,
			e.UserEmail,
			e.UserRole,
			e.Action,
			e.Resource,
			e.ResourceID,
			e.Details,
			e.Severity,
			e.IPAddress,
			success,
			e.ErrorMessage,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
