package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

// -- Mock Repositories --

type mockPermissionRepo struct {
	store map[string]*Permission
	err   error
}

func newMockPermissionRepo() *mockPermissionRepo {
	return &mockPermissionRepo{store: make(map[string]*Permission)}
}

func (m *mockPermissionRepo) ListActive(_ context.Context) ([]*Permission, error) {
	if m.err != nil {
		return nil, m.err
	}
	var r []*Permission
	for _, p := range m.store {
		if p.Active {
			r = append(r, p)
		}
	}
	return r, nil
}

func (m *mockPermissionRepo) ActiveNames(_ context.Context) (map[string]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	names := make(map[string]bool)
	for name, p := range m.store {
		if p.Active {
			names[name] = true
		}
	}
	return names, nil
}

func (m *mockPermissionRepo) Count(_ context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.store), nil
}

func (m *mockPermissionRepo) CreateBatch(_ context.Context, perms []*Permission) error {
	if m.err != nil {
		return m.err
	}
	for _, p := range perms {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		m.store[p.Name] = p
	}
	return nil
}

type mockRolePermissionRepo struct {
	store map[auth.Role]*RolePermission
	err   error
}

func newMockRolePermissionRepo() *mockRolePermissionRepo {
	return &mockRolePermissionRepo{store: make(map[auth.Role]*RolePermission)}
}

func (m *mockRolePermissionRepo) ListActive(_ context.Context) ([]*RolePermission, error) {
	if m.err != nil {
		return nil, m.err
	}
	var r []*RolePermission
	for _, rp := range m.store {
		r = append(r, rp)
	}
	return r, nil
}

func (m *mockRolePermissionRepo) GetByRole(_ context.Context, role auth.Role) (*RolePermission, error) {
	if m.err != nil {
		return nil, m.err
	}
	rp, ok := m.store[role]
	if !ok {
		return nil, ErrNotFound
	}
	return rp, nil
}

func (m *mockRolePermissionRepo) Upsert(_ context.Context, rp *RolePermission) error {
	if m.err != nil {
		return m.err
	}
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	m.store[rp.Role] = rp
	return nil
}

type recordingSystemAuditor struct {
	calls []string
}

func (r *recordingSystemAuditor) LogSystem(_ context.Context, _ *auth.User, action, details string, _ map[string]interface{}) {
	r.calls = append(r.calls, action+": "+details)
}

func newTestService() (*Service, *mockPermissionRepo, *mockRolePermissionRepo, *recordingSystemAuditor) {
	perms := newMockPermissionRepo()
	roles := newMockRolePermissionRepo()
	auditor := &recordingSystemAuditor{}
	svc := NewService(perms, roles, auditor, zerolog.Nop())
	return svc, perms, roles, auditor
}

func seedCatalog(t *testing.T, perms *mockPermissionRepo, names ...string) {
	t.Helper()
	batch := make([]*Permission, 0, len(names))
	for _, name := range names {
		batch = append(batch, &Permission{Name: name, Active: true})
	}
	if err := perms.CreateBatch(context.Background(), batch); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

// -- Tests --

func TestSetRolePermissionsReplacesSet(t *testing.T) {
	svc, perms, _, _ := newTestService()
	seedCatalog(t, perms, "patient_view", "patient_create", "billing_view")
	ctx := context.Background()

	if _, err := svc.SetRolePermissions(ctx, nil, auth.RoleReceptionist, []string{"patient_view", "patient_create"}, ""); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if _, err := svc.SetRolePermissions(ctx, nil, auth.RoleReceptionist, []string{"billing_view"}, ""); err != nil {
		t.Fatalf("second set: %v", err)
	}

	set, err := svc.PermissionsForRole(ctx, auth.RoleReceptionist)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(set) != 1 || set[0] != "billing_view" {
		t.Fatalf("expected replacement set [billing_view], got %v", set)
	}
}

func TestSetRolePermissionsClearAll(t *testing.T) {
	svc, perms, roles, _ := newTestService()
	seedCatalog(t, perms, "patient_view")
	ctx := context.Background()

	if _, err := svc.SetRolePermissions(ctx, nil, auth.RoleReceptionist, []string{"patient_view"}, ""); err != nil {
		t.Fatalf("seed set: %v", err)
	}
	// A request body without a permissions key binds nil; it must be
	// stored as the empty set, not rejected or written as NULL.
	rp, err := svc.SetRolePermissions(ctx, nil, auth.RoleReceptionist, nil, "revoked")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rp.Permissions == nil || len(rp.Permissions) != 0 {
		t.Fatalf("expected non-nil empty set, got %#v", rp.Permissions)
	}
	if stored := roles.store[auth.RoleReceptionist]; stored.Permissions == nil || len(stored.Permissions) != 0 {
		t.Fatalf("expected stored empty set, got %#v", stored.Permissions)
	}

	set, err := svc.PermissionsForRole(ctx, auth.RoleReceptionist)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected no permissions after clear, got %v", set)
	}
}

func TestSetRolePermissionsRejectsUnknownNamingAll(t *testing.T) {
	svc, perms, roles, _ := newTestService()
	seedCatalog(t, perms, "patient_view")
	ctx := context.Background()

	_, err := svc.SetRolePermissions(ctx, nil, auth.RoleAdmin,
		[]string{"patient_view", "bogus_one", "bogus_two"}, "")
	var unknown *UnknownPermissionsError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPermissionsError, got %v", err)
	}
	if len(unknown.Names) != 2 {
		t.Fatalf("expected both unknown names, got %v", unknown.Names)
	}
	for _, name := range []string{"bogus_one", "bogus_two"} {
		if !strings.Contains(unknown.Error(), name) {
			t.Errorf("error %q does not name %s", unknown.Error(), name)
		}
	}
	if len(roles.store) != 0 {
		t.Fatal("invalid set must not be partially applied")
	}
}

func TestSetRolePermissionsAudited(t *testing.T) {
	svc, perms, _, auditor := newTestService()
	seedCatalog(t, perms, "patient_view")
	actor := &auth.User{ID: "u1", Email: "admin@clinic.test", Role: auth.RoleAdmin}

	if _, err := svc.SetRolePermissions(context.Background(), actor, auth.RoleDermatologist, []string{"patient_view"}, ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(auditor.calls) != 1 {
		t.Fatalf("expected one audit call, got %d", len(auditor.calls))
	}
	if !strings.HasPrefix(auditor.calls[0], "SETTINGS_UPDATED") {
		t.Fatalf("unexpected audit action: %s", auditor.calls[0])
	}
}

func TestInitializeDefaults(t *testing.T) {
	svc, perms, roles, _ := newTestService()
	ctx := context.Background()

	created, err := svc.InitializeDefaults(ctx, nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if created != len(DefaultCatalogNames()) {
		t.Fatalf("expected %d permissions created, got %d", len(DefaultCatalogNames()), created)
	}
	if len(roles.store) != len(auth.Roles()) {
		t.Fatalf("expected %d role bindings, got %d", len(auth.Roles()), len(roles.store))
	}

	// Admin gets the full catalog.
	adminSet, err := svc.PermissionsForRole(ctx, auth.RoleAdmin)
	if err != nil {
		t.Fatalf("resolve admin: %v", err)
	}
	if len(adminSet) != len(DefaultCatalogNames()) {
		t.Fatalf("admin should hold all %d permissions, got %d", len(DefaultCatalogNames()), len(adminSet))
	}

	// A receptionist can schedule but never delete patients.
	has, err := svc.HasPermission(ctx, auth.RoleReceptionist, PermAppointmentCreate)
	if err != nil || !has {
		t.Fatalf("receptionist should hold appointment_create (has=%v err=%v)", has, err)
	}
	has, err = svc.HasPermission(ctx, auth.RoleReceptionist, PermPatientDelete)
	if err != nil || has {
		t.Fatalf("receptionist must not hold patient_delete (has=%v err=%v)", has, err)
	}

	before := len(perms.store)
	_, err = svc.InitializeDefaults(ctx, nil)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second initialize should conflict, got %v", err)
	}
	if len(perms.store) != before {
		t.Fatal("second initialize must not change the catalog")
	}
}

func TestPermissionsForRoleUnknownRoleEmpty(t *testing.T) {
	svc, _, _, _ := newTestService()
	set, err := svc.PermissionsForRole(context.Background(), auth.RoleDermatologist)
	if err != nil {
		t.Fatalf("unconfigured role must not error: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("unconfigured role must resolve to empty set, got %v", set)
	}
}

func TestPermissionsForRoleStoreError(t *testing.T) {
	svc, _, roles, _ := newTestService()
	roles.err = fmt.Errorf("connection refused")
	if _, err := svc.PermissionsForRole(context.Background(), auth.RoleAdmin); err == nil {
		t.Fatal("store failure must surface as an error")
	}
}

func TestHasPermission(t *testing.T) {
	svc, perms, _, _ := newTestService()
	seedCatalog(t, perms, "appointment_view", "billing_create")
	ctx := context.Background()
	if _, err := svc.SetRolePermissions(ctx, nil, auth.RoleReceptionist, []string{"appointment_view", "billing_create"}, ""); err != nil {
		t.Fatalf("set: %v", err)
	}

	has, err := svc.HasPermission(ctx, auth.RoleReceptionist, "appointment_view")
	if err != nil || !has {
		t.Fatalf("expected hasPermission=true, got has=%v err=%v", has, err)
	}
	has, err = svc.HasPermission(ctx, auth.RoleReceptionist, "patient_delete")
	if err != nil || has {
		t.Fatalf("expected hasPermission=false, got has=%v err=%v", has, err)
	}
	has, err = svc.HasPermission(ctx, auth.RoleDermatologist, "appointment_view")
	if err != nil || has {
		t.Fatalf("expected hasPermission=false for unbound role, got has=%v err=%v", has, err)
	}
}
