package prescription

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

func (s *Service) Create(ctx context.Context, actor *auth.User, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(p.Medications) == 0 {
		return fmt.Errorf("at least one medication is required")
	}
	for _, m := range p.Medications {
		if m.Name == "" {
			return fmt.Errorf("medication name is required")
		}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.auditor.LogPrescription(ctx, actor, audit.ActionPrescriptionCreated, p.ID.String(),
		fmt.Sprintf("Created prescription with %d medication(s)", len(p.Medications)),
		map[string]interface{}{
			"patient_id":       p.PatientID.String(),
			"medication_count": len(p.Medications),
		})
	return nil
}

// Get records the read. Prescriptions are controlled documents, so views
// are part of the trail.
func (s *Service) Get(ctx context.Context, actor *auth.User, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.auditor.LogPrescription(ctx, actor, audit.ActionPrescriptionViewed, p.ID.String(),
		"Viewed prescription",
		map[string]interface{}{"medication_count": len(p.Medications)})
	return p, nil
}

func (s *Service) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, patientID, limit, offset)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, p *Prescription) error {
	if len(p.Medications) == 0 {
		return fmt.Errorf("at least one medication is required")
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.auditor.LogPrescription(ctx, actor, audit.ActionPrescriptionUpdated, p.ID.String(),
		"Updated prescription",
		map[string]interface{}{"medication_count": len(p.Medications)})
	return nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogPrescription(ctx, actor, audit.ActionPrescriptionDeleted, id.String(),
		"Deleted prescription", nil)
	return nil
}
