package user

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

func (s *Service) Create(ctx context.Context, actor *auth.User, u *User) error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := auth.ParseRole(string(u.Role)); err != nil {
		return err
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if err := ValidStatus(u.Status); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	s.auditor.LogUserManagement(ctx, actor, audit.ActionUserCreated, u.ID.String(),
		fmt.Sprintf("Created %s account for %s", u.Role, u.Email))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" {
		if _, err := auth.ParseRole(role); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, role, limit, offset)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, u *User) error {
	if _, err := auth.ParseRole(string(u.Role)); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	s.auditor.LogUserManagement(ctx, actor, audit.ActionUserUpdated, u.ID.String(),
		fmt.Sprintf("Updated account %s", u.Email))
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, id uuid.UUID, status string) error {
	if err := ValidStatus(status); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.auditor.LogUserManagement(ctx, actor, audit.ActionUserStatusChanged, id.String(),
		fmt.Sprintf("Account status changed to %s", status))
	return nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogUserManagement(ctx, actor, audit.ActionUserDeleted, id.String(),
		fmt.Sprintf("Deleted account %s", u.Email))
	return nil
}
