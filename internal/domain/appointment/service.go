package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alimaster30/psc-sub000/internal/domain/audit"
	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

type Service struct {
	repo    Repository
	auditor *audit.Service
}

func NewService(repo Repository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actor *auth.User, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := ValidStatus(a.Status); err != nil {
		return err
	}
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = 30
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.auditor.LogAppointment(ctx, actor, audit.ActionAppointmentCreated, a.ID.String(),
		fmt.Sprintf("Scheduled appointment for %s", a.Date.Format(time.RFC3339)),
		map[string]interface{}{
			"patient_id":       a.PatientID.String(),
			"appointment_date": a.Date.Format(time.RFC3339),
		})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientID *uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" {
		if err := ValidStatus(status); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, patientID, status, limit, offset)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, a *Appointment) error {
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.auditor.LogAppointment(ctx, actor, audit.ActionAppointmentUpdated, a.ID.String(),
		"Updated appointment",
		map[string]interface{}{"appointment_date": a.Date.Format(time.RFC3339)})
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, id uuid.UUID, status string) error {
	if err := ValidStatus(status); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.auditor.LogAppointment(ctx, actor, audit.ActionAppointmentStatusChanged, id.String(),
		fmt.Sprintf("Appointment status changed to %s", status),
		map[string]interface{}{"status": status})
	return nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogAppointment(ctx, actor, audit.ActionAppointmentDeleted, id.String(),
		"Deleted appointment", nil)
	return nil
}
