package billing

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

func computeTotals(inv *Invoice) {
	inv.Subtotal = 0
	for i := range inv.Items {
		if inv.Items[i].Quantity <= 0 {
			inv.Items[i].Quantity = 1
		}
		inv.Items[i].Amount = float64(inv.Items[i].Quantity) * inv.Items[i].UnitPrice
		inv.Subtotal += inv.Items[i].Amount
	}
	inv.Total = inv.Subtotal + inv.Tax - inv.Discount
	if inv.Total < 0 {
		inv.Total = 0
	}
}

func (s *Service) nextInvoiceNumber(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")
	n, err := s.repo.CountForDay(ctx, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", day, n+1), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, inv *Invoice) error {
	if inv.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	computeTotals(inv)
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	if err := ValidStatus(inv.Status); err != nil {
		return err
	}
	if inv.InvoiceNumber == "" {
		number, err := s.nextInvoiceNumber(ctx)
		if err != nil {
			return fmt.Errorf("assign invoice number: %w", err)
		}
		inv.InvoiceNumber = number
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return err
	}
	s.auditor.LogBilling(ctx, actor, audit.ActionBillingCreated, inv.ID.String(),
		fmt.Sprintf("Created invoice %s", inv.InvoiceNumber),
		map[string]interface{}{
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.Total,
		})
	return nil
}

// Get records the read. Billing records are auditable on view.
func (s *Service) Get(ctx context.Context, actor *auth.User, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.auditor.LogBilling(ctx, actor, audit.ActionBillingViewed, inv.ID.String(),
		fmt.Sprintf("Viewed invoice %s", inv.InvoiceNumber),
		map[string]interface{}{"invoice_number": inv.InvoiceNumber})
	return inv, nil
}

func (s *Service) List(ctx context.Context, patientID *uuid.UUID, status string, limit, offset int) ([]*Invoice, int, error) {
	if status != "" {
		if err := ValidStatus(status); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, patientID, status, limit, offset)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, inv *Invoice) error {
	if len(inv.Items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	if err := ValidStatus(inv.Status); err != nil {
		return err
	}
	computeTotals(inv)
	if err := s.repo.Update(ctx, inv); err != nil {
		return err
	}
	s.auditor.LogBilling(ctx, actor, audit.ActionBillingUpdated, inv.ID.String(),
		fmt.Sprintf("Updated invoice %s", inv.InvoiceNumber),
		map[string]interface{}{
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.Total,
			"status":         inv.Status,
		})
	return nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogBilling(ctx, actor, audit.ActionBillingDeleted, id.String(),
		fmt.Sprintf("Deleted invoice %s", inv.InvoiceNumber),
		map[string]interface{}{"invoice_number": inv.InvoiceNumber})
	return nil
}

// GenerateInvoice returns the invoice in its issued form and records the
// issuance as its own trail event.
func (s *Service) GenerateInvoice(ctx context.Context, actor *auth.User, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.auditor.LogBilling(ctx, actor, audit.ActionInvoiceGenerated, inv.ID.String(),
		fmt.Sprintf("Generated invoice %s", inv.InvoiceNumber),
		map[string]interface{}{
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.Total,
		})
	return inv, nil
}
