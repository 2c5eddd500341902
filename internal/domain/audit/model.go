package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPeriod marks a stats request for a reporting window outside the
// supported set.
var ErrInvalidPeriod = errors.New("invalid stats period")

// Severity levels, in escalation order.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Action identifiers. These are stable strings consumed by the frontend and
// exported reports; renaming one is a breaking change.
const (
	ActionLogin           = "LOGIN"
	ActionLogout          = "LOGOUT"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionPasswordChanged = "PASSWORD_CHANGED"

	ActionUserCreated       = "USER_CREATED"
	ActionUserUpdated       = "USER_UPDATED"
	ActionUserDeleted       = "USER_DELETED"
	ActionUserStatusChanged = "USER_STATUS_CHANGED"

	ActionPatientCreated               = "PATIENT_CREATED"
	ActionPatientUpdated               = "PATIENT_UPDATED"
	ActionPatientDeleted               = "PATIENT_DELETED"
	ActionPatientViewed                = "PATIENT_VIEWED"
	ActionPatientMedicalHistoryUpdated = "PATIENT_MEDICAL_HISTORY_UPDATED"

	ActionAppointmentCreated       = "APPOINTMENT_CREATED"
	ActionAppointmentUpdated       = "APPOINTMENT_UPDATED"
	ActionAppointmentDeleted       = "APPOINTMENT_DELETED"
	ActionAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"

	ActionPrescriptionCreated = "PRESCRIPTION_CREATED"
	ActionPrescriptionUpdated = "PRESCRIPTION_UPDATED"
	ActionPrescriptionDeleted = "PRESCRIPTION_DELETED"
	ActionPrescriptionViewed  = "PRESCRIPTION_VIEWED"

	ActionBillingCreated   = "BILLING_CREATED"
	ActionBillingUpdated   = "BILLING_UPDATED"
	ActionBillingDeleted   = "BILLING_DELETED"
	ActionBillingViewed    = "BILLING_VIEWED"
	ActionInvoiceGenerated = "INVOICE_GENERATED"

	ActionSettingsUpdated  = "SETTINGS_UPDATED"
	ActionBackupCreated    = "BACKUP_CREATED"
	ActionBackupDownloaded = "BACKUP_DOWNLOADED"
	ActionAnalyticsViewed  = "ANALYTICS_VIEWED"
	ActionReportGenerated  = "REPORT_GENERATED"

	ActionUnauthorizedAccessAttempt = "UNAUTHORIZED_ACCESS_ATTEMPT"
	ActionPermissionDenied          = "PERMISSION_DENIED"
)

// Entry is one persisted audit record. Identity fields are denormalized at
// write time so the trail stays readable after the user record changes.
type Entry struct {
	ID           uuid.UUID              `json:"id"`
	UserID       string                 `json:"user_id,omitempty"`
	UserEmail    string                 `json:"user_email,omitempty"`
	UserName     string                 `json:"user_name,omitempty"`
	UserRole     string                 `json:"user_role,omitempty"`
	Action       string                 `json:"action"`
	Resource     string                 `json:"resource"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Details      string                 `json:"details"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Severity     string                 `json:"severity"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Success      *bool                  `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	Action    string
	Severity  string
	Resource  string
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// Stats is the aggregate view for a reporting period.
type Stats struct {
	Period         string         `json:"period"`
	Total          int            `json:"total"`
	Failed         int            `json:"failed"`
	DistinctUsers  int            `json:"distinct_users"`
	BySeverity     map[string]int `json:"by_severity"`
	ByAction       map[string]int `json:"by_action"`
	ByResource     map[string]int `json:"by_resource"`
	RecentCritical []*Entry       `json:"recent_critical"`
}
