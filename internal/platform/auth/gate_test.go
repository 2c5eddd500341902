package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubSource struct {
	perms map[Role][]string
	err   error
}

func (s *stubSource) PermissionsForRole(_ context.Context, role Role) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[role], nil
}

type recordingAuditor struct {
	calls   int
	user    *User
	path    string
	missing []string
}

func (r *recordingAuditor) LogPermissionDenied(_ context.Context, user *User, path string, missing []string) {
	r.calls++
	r.user = user
	r.path = path
	r.missing = missing
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, user *User) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return rec, h(c)
}

func TestRequirePermission_Allowed(t *testing.T) {
	auditor := &recordingAuditor{}
	gate := NewGate(&stubSource{perms: map[Role][]string{
		RoleReceptionist: {"appointment_view", "billing_create"},
	}}, auditor)

	rec, err := invoke(t, gate.RequirePermission("appointment_view"), &User{ID: "u1", Role: RoleReceptionist})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if auditor.calls != 0 {
		t.Errorf("authorized access must not be audited, got %d calls", auditor.calls)
	}
}

func TestRequirePermission_Denied(t *testing.T) {
	auditor := &recordingAuditor{}
	gate := NewGate(&stubSource{perms: map[Role][]string{
		RoleReceptionist: {"appointment_view"},
	}}, auditor)

	user := &User{ID: "u1", Email: "front@clinic.test", Role: RoleReceptionist}
	_, err := invoke(t, gate.RequirePermission("patient_delete"), user)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
	if msg, _ := httpErr.Message.(string); msg != "Permission denied: patient_delete" {
		t.Errorf("unexpected message: %v", httpErr.Message)
	}
	if auditor.calls != 1 {
		t.Fatalf("expected exactly one audit call, got %d", auditor.calls)
	}
	if auditor.user != user {
		t.Error("audit event must carry the caller identity")
	}
	if auditor.path != "/api/v1/patients" {
		t.Errorf("audit path = %q", auditor.path)
	}
	if len(auditor.missing) != 1 || auditor.missing[0] != "patient_delete" {
		t.Errorf("missing permissions = %v", auditor.missing)
	}
}

func TestRequirePermission_Unauthenticated(t *testing.T) {
	auditor := &recordingAuditor{}
	gate := NewGate(&stubSource{}, auditor)

	_, err := invoke(t, gate.RequirePermission("patient_view"), nil)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if auditor.calls != 0 {
		t.Errorf("precondition failure must not be audited, got %d calls", auditor.calls)
	}
}

func TestRequirePermission_EmptySetForUnknownRoleRecord(t *testing.T) {
	// A role with no stored record behaves as an empty permission set.
	gate := NewGate(&stubSource{perms: map[Role][]string{}}, &recordingAuditor{})
	_, err := invoke(t, gate.RequirePermission("patient_view"), &User{ID: "u1", Role: RoleDermatologist})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequirePermission_StoreErrorFailsClosed(t *testing.T) {
	auditor := &recordingAuditor{}
	gate := NewGate(&stubSource{err: fmt.Errorf("connection refused")}, auditor)

	_, err := invoke(t, gate.RequirePermission("patient_view"), &User{ID: "u1", Role: RoleAdmin})

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("store failure must surface as 5xx, not %d", httpErr.Code)
	}
	if auditor.calls != 0 {
		t.Errorf("store failure is not a policy decision, got %d audit calls", auditor.calls)
	}
}

func TestRequireAnyPermission(t *testing.T) {
	gate := NewGate(&stubSource{perms: map[Role][]string{
		RoleDermatologist: {"prescription_create"},
	}}, &recordingAuditor{})

	rec, err := invoke(t, gate.RequireAnyPermission("prescription_view", "prescription_create"),
		&User{ID: "u1", Role: RoleDermatologist})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	_, err = invoke(t, gate.RequireAnyPermission("billing_view", "billing_create"),
		&User{ID: "u1", Role: RoleDermatologist})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireAllPermissions(t *testing.T) {
	auditor := &recordingAuditor{}
	gate := NewGate(&stubSource{perms: map[Role][]string{
		RoleAdmin: {"backup_create", "backup_download"},
	}}, auditor)

	rec, err := invoke(t, gate.RequireAllPermissions("backup_create", "backup_download"),
		&User{ID: "u1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	_, err = invoke(t, gate.RequireAllPermissions("backup_create", "settings_update"),
		&User{ID: "u1", Role: RoleAdmin})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	// Only the permissions actually missing are reported.
	if len(auditor.missing) != 1 || auditor.missing[0] != "settings_update" {
		t.Errorf("missing = %v, want [settings_update]", auditor.missing)
	}
}
