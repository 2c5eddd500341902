package patient

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Patient struct {
	ID             uuid.UUID       `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	DateOfBirth    *time.Time      `json:"date_of_birth,omitempty"`
	Gender         string          `json:"gender,omitempty"`
	Address        string          `json:"address,omitempty"`
	BloodGroup     string          `json:"blood_group,omitempty"`
	Allergies      []string        `json:"allergies,omitempty"`
	MedicalHistory *MedicalHistory `json:"medical_history,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MedicalHistory is the free-form clinical background attached to a chart.
// Stored as a single jsonb document and always replaced wholesale.
type MedicalHistory struct {
	Conditions      []string `json:"conditions,omitempty"`
	Surgeries       []string `json:"surgeries,omitempty"`
	Medications     []string `json:"medications,omitempty"`
	FamilyHistory   string   `json:"family_history,omitempty"`
	SkinConditions  []string `json:"skin_conditions,omitempty"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`
}

func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
