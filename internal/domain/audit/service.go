package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

// Service persists audit entries. Writes are fire and forget: a storage
// failure is logged operationally and swallowed, never surfaced to the
// business operation that triggered it.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Log normalizes and persists one entry. Severity defaults to MEDIUM,
// success defaults to true.
func (s *Service) Log(ctx context.Context, e *Entry) {
	if e.Severity == "" {
		e.Severity = SeverityMedium
	}
	if e.Success == nil {
		ok := true
		e.Success = &ok
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		s.log.Error().Err(err).
			Str("action", e.Action).
			Str("resource", e.Resource).
			Msg("audit write failed")
	}
}

// LogRequest stamps the caller's network identity from the request before
// persisting.
func (s *Service) LogRequest(c echo.Context, e *Entry) {
	e.IPAddress = c.RealIP()
	e.UserAgent = c.Request().UserAgent()
	s.Log(c.Request().Context(), e)
}

func applyActor(e *Entry, user *auth.User) {
	if user == nil {
		return
	}
	e.UserID = user.ID
	e.UserEmail = user.Email
	e.UserName = user.Name
	e.UserRole = string(user.Role)
}

// LogAuth records sign-in activity. The attempted email is recorded even
// when no user resolved, so failed attempts stay attributable.
func (s *Service) LogAuth(ctx context.Context, user *auth.User, action, email string, success bool, errMessage string) {
	e := &Entry{
		Action:       action,
		Resource:     "auth",
		Severity:     SeverityLow,
		Success:      &success,
		ErrorMessage: errMessage,
	}
	applyActor(e, user)
	if e.UserEmail == "" {
		e.UserEmail = email
	}
	if success {
		e.Details = fmt.Sprintf("%s for %s", action, e.UserEmail)
	} else {
		e.Severity = SeverityHigh
		e.Details = fmt.Sprintf("%s for %s", action, email)
	}
	s.Log(ctx, e)
}

func (s *Service) LogUserManagement(ctx context.Context, actor *auth.User, action, targetUserID, details string) {
	e := &Entry{
		Action:     action,
		Resource:   "users",
		ResourceID: targetUserID,
		Details:    details,
		Severity:   SeverityHigh,
		Metadata:   map[string]interface{}{"target_user_id": targetUserID},
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

// LogPatient records patient-chart activity. Read-only views are LOW,
// anything that mutates the chart is MEDIUM.
func (s *Service) LogPatient(ctx context.Context, actor *auth.User, action, patientID, details string) {
	severity := SeverityMedium
	if action == ActionPatientViewed {
		severity = SeverityLow
	}
	e := &Entry{
		Action:     action,
		Resource:   "patients",
		ResourceID: patientID,
		Details:    details,
		Severity:   severity,
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

func (s *Service) LogAppointment(ctx context.Context, actor *auth.User, action, appointmentID, details string, metadata map[string]interface{}) {
	e := &Entry{
		Action:     action,
		Resource:   "appointments",
		ResourceID: appointmentID,
		Details:    details,
		Severity:   SeverityMedium,
		Metadata:   metadata,
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

func (s *Service) LogPrescription(ctx context.Context, actor *auth.User, action, prescriptionID, details string, metadata map[string]interface{}) {
	e := &Entry{
		Action:     action,
		Resource:   "prescriptions",
		ResourceID: prescriptionID,
		Details:    details,
		Severity:   SeverityMedium,
		Metadata:   metadata,
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

func (s *Service) LogBilling(ctx context.Context, actor *auth.User, action, invoiceID, details string, metadata map[string]interface{}) {
	e := &Entry{
		Action:     action,
		Resource:   "billing",
		ResourceID: invoiceID,
		Details:    details,
		Severity:   SeverityMedium,
		Metadata:   metadata,
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

// LogSystem records administrative changes (settings, backups, permission
// edits). Always HIGH.
func (s *Service) LogSystem(ctx context.Context, actor *auth.User, action, details string, metadata map[string]interface{}) {
	e := &Entry{
		Action:   action,
		Resource: "system",
		Details:  details,
		Severity: SeverityHigh,
		Metadata: metadata,
	}
	applyActor(e, actor)
	s.Log(ctx, e)
}

// LogSecurity records a security event. Always CRITICAL and always a
// failure.
func (s *Service) LogSecurity(ctx context.Context, user *auth.User, action, path, details string, metadata map[string]interface{}) {
	failed := false
	e := &Entry{
		Action:     action,
		Resource:   "security",
		ResourceID: path,
		Details:    details,
		Severity:   SeverityCritical,
		Success:    &failed,
		Metadata:   metadata,
	}
	applyActor(e, user)
	s.Log(ctx, e)
}

// LogPermissionDenied records a denied authorization check.
func (s *Service) LogPermissionDenied(ctx context.Context, user *auth.User, path string, missing []string) {
	s.LogSecurity(ctx, user, ActionPermissionDenied, path,
		fmt.Sprintf("Permission denied: %s", strings.Join(missing, ", ")),
		map[string]interface{}{"missing_permissions": missing})
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListRange(ctx context.Context, start, end *time.Time) ([]*Entry, error) {
	return s.repo.ListRange(ctx, start, end)
}

func (s *Service) StatsForPeriod(ctx context.Context, period string) (*Stats, error) {
	var window time.Duration
	switch period {
	case "24h":
		window = 24 * time.Hour
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	case "90d":
		window = 90 * 24 * time.Hour
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	st, err := s.repo.Stats(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}
	st.Period = period
	return st, nil
}
