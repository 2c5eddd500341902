package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/domain/audit"
	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

type mockAppointmentRepo struct {
	store map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{store: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.store[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, patientID *uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	var r []*Appointment
	for _, a := range m.store {
		if patientID != nil && a.PatientID != *patientID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		r = append(r, a)
	}
	return r, len(r), nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.store[a.ID]; !ok {
		return ErrNotFound
	}
	m.store[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type captureAuditRepo struct {
	entries []*audit.Entry
}

func (s *captureAuditRepo) Insert(_ context.Context, e *audit.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *captureAuditRepo) List(_ context.Context, _ audit.Filter, _, _ int) ([]*audit.Entry, int, error) {
	return s.entries, len(s.entries), nil
}

func (s *captureAuditRepo) ListRange(_ context.Context, _, _ *time.Time) ([]*audit.Entry, error) {
	return s.entries, nil
}

func (s *captureAuditRepo) Stats(_ context.Context, _ time.Time) (*audit.Stats, error) {
	return &audit.Stats{}, nil
}

func newTestAppointmentService() (*Service, *mockAppointmentRepo, *captureAuditRepo) {
	repo := newMockAppointmentRepo()
	auditRepo := &captureAuditRepo{}
	return NewService(repo, audit.NewService(auditRepo, zerolog.Nop())), repo, auditRepo
}

func TestCreateDefaultsAndAudit(t *testing.T) {
	svc, _, auditRepo := newTestAppointmentService()
	actor := &auth.User{ID: "u2", Role: auth.RoleReceptionist}
	a := &Appointment{
		PatientID: uuid.New(),
		Date:      time.Now().Add(48 * time.Hour),
	}
	if err := svc.Create(context.Background(), actor, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if a.DurationMinutes != 30 {
		t.Errorf("duration = %d, want default 30", a.DurationMinutes)
	}
	e := auditRepo.entries[0]
	if e.Action != audit.ActionAppointmentCreated || e.Severity != audit.SeverityMedium {
		t.Errorf("audit entry = %+v", e)
	}
	if e.Metadata["appointment_date"] == "" {
		t.Error("metadata should carry the appointment date")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestAppointmentService()
	if err := svc.Create(context.Background(), nil, &Appointment{Date: time.Now()}); err == nil {
		t.Fatal("missing patient_id must be rejected")
	}
	if err := svc.Create(context.Background(), nil, &Appointment{PatientID: uuid.New()}); err == nil {
		t.Fatal("missing date must be rejected")
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, repo, auditRepo := newTestAppointmentService()
	a := &Appointment{PatientID: uuid.New(), Date: time.Now().Add(time.Hour)}
	if err := svc.Create(context.Background(), nil, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), nil, a.ID, StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if repo.store[a.ID].Status != StatusCompleted {
		t.Errorf("status = %s", repo.store[a.ID].Status)
	}
	last := auditRepo.entries[len(auditRepo.entries)-1]
	if last.Action != audit.ActionAppointmentStatusChanged {
		t.Errorf("action = %s, want APPOINTMENT_STATUS_CHANGED", last.Action)
	}

	if err := svc.UpdateStatus(context.Background(), nil, a.ID, "rescheduled"); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}

func TestListStatusFilterValidated(t *testing.T) {
	svc, _, _ := newTestAppointmentService()
	if _, _, err := svc.List(context.Background(), nil, "bogus", 20, 0); err == nil {
		t.Fatal("unknown status filter must be rejected")
	}
	if _, _, err := svc.List(context.Background(), nil, StatusNoShow, 20, 0); err != nil {
		t.Fatalf("valid status filter: %v", err)
	}
}

func TestDeleteMissingAppointment(t *testing.T) {
	svc, _, _ := newTestAppointmentService()
	if err := svc.Delete(context.Background(), nil, uuid.New()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
