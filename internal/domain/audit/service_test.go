package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	entries   []*Entry
	insertErr error
}

func (m *mockRepo) Insert(_ context.Context, e *Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	var matched []*Entry
	for _, e := range m.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Severity != "" && e.Severity != f.Severity {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *mockRepo) ListRange(_ context.Context, start, end *time.Time) ([]*Entry, error) {
	var r []*Entry
	for _, e := range m.entries {
		if start != nil && e.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && e.CreatedAt.After(*end) {
			continue
		}
		r = append(r, e)
	}
	return r, nil
}

func (m *mockRepo) Stats(_ context.Context, since time.Time) (*Stats, error) {
	st := &Stats{
		BySeverity: make(map[string]int),
		ByAction:   make(map[string]int),
		ByResource: make(map[string]int),
	}
	users := make(map[string]bool)
	for _, e := range m.entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		st.Total++
		st.BySeverity[e.Severity]++
		st.ByAction[e.Action]++
		st.ByResource[e.Resource]++
		if e.Success != nil && !*e.Success {
			st.Failed++
		}
		if e.UserID != "" {
			users[e.UserID] = true
		}
		if e.Severity == SeverityCritical {
			st.RecentCritical = append(st.RecentCritical, e)
		}
	}
	st.DistinctUsers = len(users)
	return st, nil
}

func newTestAuditService() (*Service, *mockRepo) {
	repo := &mockRepo{}
	return NewService(repo, zerolog.Nop()), repo
}

// -- Tests --

func TestLogAppliesDefaults(t *testing.T) {
	svc, repo := newTestAuditService()
	svc.Log(context.Background(), &Entry{Action: ActionPatientCreated, Resource: "patients"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Severity != SeverityMedium {
		t.Errorf("severity default should be MEDIUM, got %s", e.Severity)
	}
	if e.Success == nil || !*e.Success {
		t.Error("success default should be true")
	}
	if e.CreatedAt.IsZero() {
		t.Error("timestamp should be stamped")
	}
}

func TestLogSwallowsStoreFailure(t *testing.T) {
	svc, repo := newTestAuditService()
	repo.insertErr = fmt.Errorf("connection refused")

	// Must not panic or surface the error in any way.
	svc.Log(context.Background(), &Entry{Action: ActionPatientCreated, Resource: "patients"})
	svc.LogPermissionDenied(context.Background(), nil, "/api/v1/patients", []string{"patient_view"})
}

func TestLogPermissionDenied(t *testing.T) {
	svc, repo := newTestAuditService()
	user := &auth.User{ID: "u2", Email: "desk@clinic.test", Name: "Front Desk", Role: auth.RoleReceptionist}

	svc.LogPermissionDenied(context.Background(), user, "/api/v1/patients/42", []string{"patient_delete"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Action != ActionPermissionDenied {
		t.Errorf("action = %s, want PERMISSION_DENIED", e.Action)
	}
	if e.Severity != SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL", e.Severity)
	}
	if e.Success == nil || *e.Success {
		t.Error("denial must record success=false")
	}
	if e.ResourceID != "/api/v1/patients/42" {
		t.Errorf("resource id = %s, want attempted path", e.ResourceID)
	}
	if e.UserEmail != "desk@clinic.test" || e.UserRole != "receptionist" {
		t.Errorf("caller identity not recorded: %+v", e)
	}
	if e.Details != "Permission denied: patient_delete" {
		t.Errorf("details = %q", e.Details)
	}
}

func TestLogAuthSeverity(t *testing.T) {
	svc, repo := newTestAuditService()
	user := &auth.User{ID: "u1", Email: "admin@clinic.test", Role: auth.RoleAdmin}

	svc.LogAuth(context.Background(), user, ActionLogin, "", true, "")
	svc.LogAuth(context.Background(), nil, ActionLoginFailed, "ghost@clinic.test", false, "invalid credentials")

	if len(repo.entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(repo.entries))
	}
	if repo.entries[0].Severity != SeverityLow {
		t.Errorf("successful login severity = %s, want LOW", repo.entries[0].Severity)
	}
	failed := repo.entries[1]
	if failed.Severity != SeverityHigh {
		t.Errorf("failed login severity = %s, want HIGH", failed.Severity)
	}
	if failed.UserEmail != "ghost@clinic.test" {
		t.Error("failed login must record the attempted email")
	}
	if failed.ErrorMessage != "invalid credentials" {
		t.Errorf("error message = %q", failed.ErrorMessage)
	}
}

func TestLogPatientSeverity(t *testing.T) {
	svc, repo := newTestAuditService()
	svc.LogPatient(context.Background(), nil, ActionPatientViewed, "p1", "Viewed patient chart")
	svc.LogPatient(context.Background(), nil, ActionPatientUpdated, "p1", "Updated patient chart")

	if repo.entries[0].Severity != SeverityLow {
		t.Errorf("viewed severity = %s, want LOW", repo.entries[0].Severity)
	}
	if repo.entries[1].Severity != SeverityMedium {
		t.Errorf("updated severity = %s, want MEDIUM", repo.entries[1].Severity)
	}
}

func TestLogSystemSeverity(t *testing.T) {
	svc, repo := newTestAuditService()
	svc.LogSystem(context.Background(), nil, ActionSettingsUpdated, "Updated clinic settings", nil)
	if repo.entries[0].Severity != SeverityHigh {
		t.Errorf("system severity = %s, want HIGH", repo.entries[0].Severity)
	}
}

func TestStatsForPeriod(t *testing.T) {
	svc, repo := newTestAuditService()
	now := time.Now().UTC()
	failed := false
	repo.entries = []*Entry{
		{Action: ActionLogin, Resource: "auth", Severity: SeverityLow, UserID: "u1", CreatedAt: now.Add(-time.Hour)},
		{Action: ActionPermissionDenied, Resource: "security", Severity: SeverityCritical, UserID: "u2", Success: &failed, CreatedAt: now.Add(-2 * time.Hour)},
		{Action: ActionLogin, Resource: "auth", Severity: SeverityLow, UserID: "u1", CreatedAt: now.Add(-72 * time.Hour)},
	}

	st, err := svc.StatsForPeriod(context.Background(), "24h")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 {
		t.Errorf("total = %d, want 2 (older entry outside window)", st.Total)
	}
	if st.Failed != 1 {
		t.Errorf("failed = %d, want 1", st.Failed)
	}
	if st.DistinctUsers != 2 {
		t.Errorf("distinct users = %d, want 2", st.DistinctUsers)
	}
	if len(st.RecentCritical) != 1 {
		t.Errorf("recent critical = %d, want 1", len(st.RecentCritical))
	}
	if st.Period != "24h" {
		t.Errorf("period = %q", st.Period)
	}

	if _, err := svc.StatsForPeriod(context.Background(), "42d"); err == nil {
		t.Fatal("unsupported period must be rejected")
	}
}
