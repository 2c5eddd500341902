package patient

import (
	"context"
	"fmt"

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

func (s *Service) Create(ctx context.Context, actor *auth.User, p *Patient) error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("patient name is required")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.auditor.LogPatient(ctx, actor, audit.ActionPatientCreated, p.ID.String(),
		fmt.Sprintf("Created patient %s", p.FullName()))
	return nil
}

// Get reads one chart and records the access. Chart reads are auditable
// events in their own right.
func (s *Service) Get(ctx context.Context, actor *auth.User, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.auditor.LogPatient(ctx, actor, audit.ActionPatientViewed, p.ID.String(),
		fmt.Sprintf("Viewed patient %s", p.FullName()))
	return p, nil
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, search, limit, offset)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, p *Patient) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.auditor.LogPatient(ctx, actor, audit.ActionPatientUpdated, p.ID.String(),
		fmt.Sprintf("Updated patient %s", p.FullName()))
	return nil
}

func (s *Service) UpdateMedicalHistory(ctx context.Context, actor *auth.User, id uuid.UUID, h *MedicalHistory) error {
	if err := s.repo.UpdateMedicalHistory(ctx, id, h); err != nil {
		return err
	}
	s.auditor.LogPatient(ctx, actor, audit.ActionPatientMedicalHistoryUpdated, id.String(),
		"Updated patient medical history")
	return nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogPatient(ctx, actor, audit.ActionPatientDeleted, id.String(), "Deleted patient")
	return nil
}
