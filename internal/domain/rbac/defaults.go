package rbac

import "github.com/Alimaster30/psc-sub000/internal/platform/auth"

// Permission identifiers. These are the stable names stored in RolePermission
// sets and referenced by route guards.
const (
	PermPatientView   = "patient_view"
	PermPatientCreate = "patient_create"
	PermPatientUpdate = "patient_update"
	PermPatientDelete = "patient_delete"

	PermAppointmentView   = "appointment_view"
	PermAppointmentCreate = "appointment_create"
	PermAppointmentUpdate = "appointment_update"
	PermAppointmentDelete = "appointment_delete"

	PermPrescriptionView   = "prescription_view"
	PermPrescriptionCreate = "prescription_create"
	PermPrescriptionUpdate = "prescription_update"
	PermPrescriptionDelete = "prescription_delete"

	PermBillingView   = "billing_view"
	PermBillingCreate = "billing_create"
	PermBillingUpdate = "billing_update"
	PermBillingDelete = "billing_delete"

	PermUserView   = "user_view"
	PermUserCreate = "user_create"
	PermUserUpdate = "user_update"
	PermUserDelete = "user_delete"

	PermAnalyticsView  = "analytics_view"
	PermReportGenerate = "report_generate"

	PermSettingsView   = "settings_view"
	PermSettingsUpdate = "settings_update"

	PermBackupCreate   = "backup_create"
	PermBackupDownload = "backup_download"

	PermAuditLogView   = "audit_log_view"
	PermAuditLogExport = "audit_log_export"
)

type catalogEntry struct {
	name        string
	displayName string
	module      string
}

// defaultCatalog is the fixed permission catalog seeded by InitializeDefaults.
var defaultCatalog = []catalogEntry{
	{PermPatientView, "View Patients", "patients"},
	{PermPatientCreate, "Create Patients", "patients"},
	{PermPatientUpdate, "Update Patients", "patients"},
	{PermPatientDelete, "Delete Patients", "patients"},

	{PermAppointmentView, "View Appointments", "appointments"},
	{PermAppointmentCreate, "Create Appointments", "appointments"},
	{PermAppointmentUpdate, "Update Appointments", "appointments"},
	{PermAppointmentDelete, "Delete Appointments", "appointments"},

	{PermPrescriptionView, "View Prescriptions", "prescriptions"},
	{PermPrescriptionCreate, "Create Prescriptions", "prescriptions"},
	{PermPrescriptionUpdate, "Update Prescriptions", "prescriptions"},
	{PermPrescriptionDelete, "Delete Prescriptions", "prescriptions"},

	{PermBillingView, "View Billing", "billing"},
	{PermBillingCreate, "Create Invoices", "billing"},
	{PermBillingUpdate, "Update Billing", "billing"},
	{PermBillingDelete, "Delete Billing", "billing"},

	{PermUserView, "View Users", "users"},
	{PermUserCreate, "Create Users", "users"},
	{PermUserUpdate, "Update Users", "users"},
	{PermUserDelete, "Delete Users", "users"},

	{PermAnalyticsView, "View Analytics", "analytics"},
	{PermReportGenerate, "Generate Reports", "analytics"},

	{PermSettingsView, "View Settings", "settings"},
	{PermSettingsUpdate, "Update Settings", "settings"},

	{PermBackupCreate, "Create Backups", "backup"},
	{PermBackupDownload, "Download Backups", "backup"},

	{PermAuditLogView, "View Audit Logs", "audit_logs"},
	{PermAuditLogExport, "Export Audit Logs", "audit_logs"},
}

// DefaultCatalogNames returns the identifiers of the full default catalog, in
// catalog order.
func DefaultCatalogNames() []string {
	names := make([]string, len(defaultCatalog))
	for i, e := range defaultCatalog {
		names[i] = e.name
	}
	return names
}

// DefaultRoleSets returns the default permission set for each role: admin
// holds the full catalog, the clinical role a clinically-scoped subset, the
// front-desk role a scheduling/billing-scoped subset.
func DefaultRoleSets() map[auth.Role][]string {
	return map[auth.Role][]string{
		auth.RoleAdmin: DefaultCatalogNames(),
		auth.RoleDermatologist: {
			PermPatientView, PermPatientCreate, PermPatientUpdate,
			PermAppointmentView, PermAppointmentUpdate,
			PermPrescriptionView, PermPrescriptionCreate, PermPrescriptionUpdate, PermPrescriptionDelete,
			PermAnalyticsView,
		},
		auth.RoleReceptionist: {
			PermPatientView, PermPatientCreate, PermPatientUpdate,
			PermAppointmentView, PermAppointmentCreate, PermAppointmentUpdate, PermAppointmentDelete,
			PermBillingView, PermBillingCreate, PermBillingUpdate,
		},
	}
}
