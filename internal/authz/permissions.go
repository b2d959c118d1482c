// internal/authz/permissions.go
package authz

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Job orders
	JobOrderCreate        = "create:job_order"
	JobOrderView          = "view:job_order"
	JobOrderViewOwn       = "view:own_job_order"
	JobOrderViewChecklist = "view:checklist_job_order"
	JobOrderUpdate        = "update:job_order"
	JobOrderUpdateStatus  = "update:job_order_status"
	JobOrderCancel        = "cancel:job_order"
	JobOrderArchive       = "archive:job_order"
	JobOrderRestore       = "restore:job_order"
	JobOrderExport        = "export:job_order"
	JobOrderComplete      = "complete:job_order"

	// Waste management (Form4)
	AppraisersAssign        = "assign:appraisers"
	AppraisalSubmit         = "submit:appraisal"
	ProposalSubmit          = "submit:proposal"
	ProposalApprove         = "approve:proposal"
	HaulingPersonnelAssign  = "assign:hauling_personnel"
	HaulingStart            = "start:hauling"
	SafetyChecklistComplete = "complete:safety_checklist"

	// IT service
	TechnicianAssign   = "assign:technician"
	OnsiteReportSubmit = "submit:onsite_report"

	// Корректировки
	CorrectionCreate  = "create:job_order_correction"
	CorrectionView    = "view:job_order_correction"
	CorrectionApprove = "approve:job_order_correction"

	// Инциденты
	IncidentCreate = "create:incident"
	IncidentView   = "view:incident"
	IncidentVerify = "verify:incident"

	// Справочники
	TruckView      = "view:truck"
	TruckManage    = "manage:truck"
	EmployeeView   = "view:employee"
	EmployeeManage = "manage:employee"

	// Все права (только в YAML)
	Wildcard = "*"
)

func AllPermissions() []string {
	return []string{
		JobOrderCreate, JobOrderView, JobOrderViewOwn, JobOrderViewChecklist,
		JobOrderUpdate, JobOrderUpdateStatus, JobOrderCancel, JobOrderArchive,
		JobOrderRestore, JobOrderExport, JobOrderComplete,
		AppraisersAssign, AppraisalSubmit, ProposalSubmit, ProposalApprove,
		HaulingPersonnelAssign, HaulingStart, SafetyChecklistComplete,
		TechnicianAssign, OnsiteReportSubmit,
		CorrectionCreate, CorrectionView, CorrectionApprove,
		IncidentCreate, IncidentView, IncidentVerify,
		TruckView, TruckManage, EmployeeView, EmployeeManage,
	}
}

func IsKnownPermission(p string) bool {
	for _, known := range AllPermissions() {
		if known == p {
			return true
		}
	}
	return false
}
