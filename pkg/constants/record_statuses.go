package constants

// Корректировки
const (
	CorrectionPending  = "pending"
	CorrectionApproved = "approved"
	CorrectionRejected = "rejected"
)

const (
	CorrectionTargetJobOrder    = "job_order"
	CorrectionTargetServiceable = "serviceable"
)

// Инциденты
const (
	IncidentForVerification = "for verification"
	IncidentVerified        = "verified"
	IncidentDropped         = "dropped"
	IncidentNoIncident      = "no incident"
)

var IncidentVerdicts = []string{IncidentVerified, IncidentDropped, IncidentNoIncident}

// Вывозы (haulings)
const (
	HaulingPending    = "pending"
	HaulingInProgress = "in-progress"
	HaulingDone       = "done"
)

const (
	HaulingRoleDriver = "driver"
	HaulingRoleHauler = "hauler"
)

// Пункты чек-листа безопасности бригадира.
var SafetyChecklistItems = []string{
	"ppe_complete",
	"vehicle_inspected",
	"spill_kit_loaded",
	"route_briefed",
	"waste_properly_contained",
}

// Грузовики
const (
	TruckAvailable   = "available"
	TruckInUse       = "in-use"
	TruckMaintenance = "maintenance"
)

var TruckStatuses = []string{TruckAvailable, TruckInUse, TruckMaintenance}

// Сотрудники
const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

var EmployeeStatuses = []string{EmployeeActive, EmployeeInactive}

func IsIncidentVerdict(code string) bool {
	return contains(IncidentVerdicts, code)
}
