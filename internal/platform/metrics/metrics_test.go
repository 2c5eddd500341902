package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/patients/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/patients/abc", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",path="/patients/:id",status="200"} 3`) {
		t.Errorf("expected counter with route template label, got:\n%s", body)
	}
	if !strings.Contains(body, "http_request_duration_seconds") {
		t.Error("expected duration histogram in exposition")
	}
}

func TestMiddleware_LabelsErrorStatus(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/patients/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "Permission denied: patient_view")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("storage offline")
	})
	e.GET("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/patients/abc", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)
	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",path="/patients/:id",status="403"} 1`) {
		t.Errorf("expected denied request counted as 403, got:\n%s", body)
	}
	if !strings.Contains(body, `http_requests_total{method="GET",path="/boom",status="500"} 1`) {
		t.Errorf("expected plain error counted as 500, got:\n%s", body)
	}
}

func TestNew_IsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	if a == nil || b == nil {
		t.Fatal("expected independent metric sets")
	}
}
