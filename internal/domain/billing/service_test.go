package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/domain/audit"
	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

type mockInvoiceRepo struct {
	store map[uuid.UUID]*Invoice
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{store: make(map[uuid.UUID]*Invoice)}
}

func (m *mockInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	m.store[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (m *mockInvoiceRepo) List(_ context.Context, patientID *uuid.UUID, status string, limit, offset int) ([]*Invoice, int, error) {
	var r []*Invoice
	for _, inv := range m.store {
		if patientID != nil && inv.PatientID != *patientID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		r = append(r, inv)
	}
	return r, len(r), nil
}

func (m *mockInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := m.store[inv.ID]; !ok {
		return ErrNotFound
	}
	m.store[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockInvoiceRepo) CountForDay(_ context.Context, day string) (int, error) {
	n := 0
	for _, inv := range m.store {
		if strings.HasPrefix(inv.InvoiceNumber, "INV-"+day+"-") {
			n++
		}
	}
	return n, nil
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

func newTestBillingService() (*Service, *captureAuditRepo) {
	auditRepo := &captureAuditRepo{}
	return NewService(newMockInvoiceRepo(), audit.NewService(auditRepo, zerolog.Nop())), auditRepo
}

func TestCreateComputesTotals(t *testing.T) {
	svc, auditRepo := newTestBillingService()
	inv := &Invoice{
		PatientID: uuid.New(),
		Tax:       100,
		Discount:  50,
		Items: []LineItem{
			{Description: "Consultation", Quantity: 1, UnitPrice: 2000},
			{Description: "Cryotherapy", Quantity: 2, UnitPrice: 1500},
		},
	}
	if err := svc.Create(context.Background(), nil, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Subtotal != 5000 {
		t.Errorf("subtotal = %v, want 5000", inv.Subtotal)
	}
	if inv.Total != 5050 {
		t.Errorf("total = %v, want 5050", inv.Total)
	}
	if inv.Status != StatusPending {
		t.Errorf("status = %s, want pending", inv.Status)
	}
	e := auditRepo.entries[0]
	if e.Action != audit.ActionBillingCreated {
		t.Errorf("action = %s", e.Action)
	}
	if e.Metadata["invoice_number"] != inv.InvoiceNumber {
		t.Errorf("metadata invoice_number = %v", e.Metadata["invoice_number"])
	}
}

func TestInvoiceNumberSequence(t *testing.T) {
	svc, _ := newTestBillingService()
	day := time.Now().UTC().Format("20060102")

	first := &Invoice{PatientID: uuid.New(), Items: []LineItem{{Description: "Consultation", UnitPrice: 2000}}}
	second := &Invoice{PatientID: uuid.New(), Items: []LineItem{{Description: "Consultation", UnitPrice: 2000}}}
	if err := svc.Create(context.Background(), nil, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := svc.Create(context.Background(), nil, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.InvoiceNumber != "INV-"+day+"-0001" {
		t.Errorf("first number = %s", first.InvoiceNumber)
	}
	if second.InvoiceNumber != "INV-"+day+"-0002" {
		t.Errorf("second number = %s", second.InvoiceNumber)
	}
}

func TestGenerateInvoiceAudited(t *testing.T) {
	svc, auditRepo := newTestBillingService()
	actor := &auth.User{ID: "u2", Role: auth.RoleReceptionist}
	inv := &Invoice{PatientID: uuid.New(), Items: []LineItem{{Description: "Consultation", UnitPrice: 2000}}}
	if err := svc.Create(context.Background(), actor, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GenerateInvoice(context.Background(), actor, inv.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	last := auditRepo.entries[len(auditRepo.entries)-1]
	if last.Action != audit.ActionInvoiceGenerated {
		t.Errorf("action = %s, want INVOICE_GENERATED", last.Action)
	}
}

func TestCreateRequiresItems(t *testing.T) {
	svc, _ := newTestBillingService()
	if err := svc.Create(context.Background(), nil, &Invoice{PatientID: uuid.New()}); err == nil {
		t.Fatal("invoice without line items must be rejected")
	}
}

func TestTotalNeverNegative(t *testing.T) {
	svc, _ := newTestBillingService()
	inv := &Invoice{
		PatientID: uuid.New(),
		Discount:  10000,
		Items:     []LineItem{{Description: "Consultation", UnitPrice: 2000}},
	}
	if err := svc.Create(context.Background(), nil, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Total != 0 {
		t.Errorf("total = %v, want clamped to 0", inv.Total)
	}
}
