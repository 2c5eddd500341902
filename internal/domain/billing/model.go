package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("invoice not found")

// Invoice statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusPartial   = "partial"
	StatusCancelled = "cancelled"
)

func ValidStatus(s string) error {
	switch s {
	case StatusPending, StatusPaid, StatusPartial, StatusCancelled:
		return nil
	}
	return fmt.Errorf("invalid invoice status %q", s)
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	PatientID     uuid.UUID  `json:"patient_id"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	Total         float64    `json:"total"`
	AmountPaid    float64    `json:"amount_paid"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
