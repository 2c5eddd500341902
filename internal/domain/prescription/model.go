package prescription

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type Prescription struct {
	ID              uuid.UUID    `json:"id"`
	PatientID       uuid.UUID    `json:"patient_id"`
	DermatologistID string       `json:"dermatologist_id"`
	Diagnosis       string       `json:"diagnosis,omitempty"`
	Medications     []Medication `json:"medications"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
