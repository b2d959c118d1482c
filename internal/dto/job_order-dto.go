package dto

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"job-order-system/internal/entities"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
)

// JobOrderDetailsDTO - общие поля job order для создания и редактирования.
type JobOrderDetailsDTO struct {
	ScheduledDate string      `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime string      `json:"scheduled_time" validate:"required,hhmm"`
	ClientName    string      `json:"client_name" validate:"required,max=255"`
	Address       string      `json:"address" validate:"required,max=1000"`
	ContactPerson string      `json:"contact_person" validate:"required,max=255"`
	ContactNumber string      `json:"contact_number" validate:"required,contact_number"`
	Email         null.String `json:"email" validate:"omitempty,email,max=255"`
	Remarks       null.String `json:"remarks" validate:"omitempty,max=2000"`
}

// ApplyTo переносит поля в сущность. Дата уже проверена валидатором.
func (d JobOrderDetailsDTO) ApplyTo(jo *entities.JobOrder) {
	jo.ScheduledDate, _ = time.Parse(types.DateLayout, d.ScheduledDate)
	jo.ScheduledTime = d.ScheduledTime
	jo.ClientName = d.ClientName
	jo.Address = d.Address
	jo.ContactPerson = d.ContactPerson
	jo.ContactNumber = d.ContactNumber
	jo.Email = d.Email
	jo.Remarks = d.Remarks
}

// Columns - значения для UPDATE по колонкам job_orders.
func (d JobOrderDetailsDTO) Columns() map[string]interface{} {
	date, _ := time.Parse(types.DateLayout, d.ScheduledDate)
	return map[string]interface{}{
		"scheduled_date": date,
		"scheduled_time": d.ScheduledTime,
		"client_name":    d.ClientName,
		"address":        d.Address,
		"contact_person": d.ContactPerson,
		"contact_number": d.ContactNumber,
		"email":          d.Email,
		"remarks":        d.Remarks,
	}
}

type CreateWasteManagementDTO struct {
	JobOrderDetailsDTO
	Status           string          `json:"status" validate:"omitempty,job_status"`
	WasteType        string          `json:"waste_type" validate:"required,max=100"`
	WasteDescription string          `json:"waste_description" validate:"omitempty,max=2000"`
	EstimatedVolume  decimal.Decimal `json:"estimated_volume" validate:"gt=0"`
	Unit             string          `json:"unit" validate:"required,max=20"`
}

type CreateITServiceDTO struct {
	JobOrderDetailsDTO
	Status             string      `json:"status" validate:"omitempty,job_status"`
	MachineType        string      `json:"machine_type" validate:"required,max=100"`
	Brand              string      `json:"brand" validate:"omitempty,max=100"`
	Model              string      `json:"model" validate:"omitempty,max=100"`
	SerialNumber       null.String `json:"serial_number" validate:"omitempty,max=100"`
	ProblemDescription string      `json:"problem_description" validate:"required,max=2000"`
	TechnicianID       null.Uint64 `json:"technician_id" validate:"omitempty,gt=0"`
}

type CreateOtherServiceDTO struct {
	JobOrderDetailsDTO
	Status      string              `json:"status" validate:"omitempty,job_status"`
	ServiceName string              `json:"service_name" validate:"required,max=255"`
	Description string              `json:"description" validate:"omitempty,max=2000"`
	Amount      decimal.NullDecimal `json:"amount" validate:"omitempty,gte=0"`
}

type UpdateJobOrderStatusDTO struct {
	Status string `json:"status" validate:"required,job_status"`
}

type CancelJobOrderDTO struct {
	Status string `json:"status" validate:"required,cancelled_status"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

// --- Waste management ---

type AssignAppraisersDTO struct {
	EmployeeIDs []uint64 `json:"employee_ids" validate:"required,min=1,dive,gt=0"`
}

type SubmitAppraisalDTO struct {
	Notes string `json:"appraisal_notes" validate:"required,max=2000"`
}

type SubmitProposalDTO struct {
	Amount decimal.Decimal `json:"proposal_amount" validate:"gt=0"`
	Notes  null.String     `json:"proposal_notes" validate:"omitempty,max=2000"`
}

type HaulingPersonnelDTO struct {
	EmployeeID uint64 `json:"employee_id" validate:"required,gt=0"`
	Role       string `json:"role" validate:"required,oneof=driver hauler"`
}

type AssignHaulingPersonnelDTO struct {
	TruckID      uint64                `json:"truck_id" validate:"required,gt=0"`
	TeamLeaderID uint64                `json:"team_leader_id" validate:"required,gt=0"`
	HaulingDate  string                `json:"hauling_date" validate:"required,datetime=2006-01-02"`
	Personnel    []HaulingPersonnelDTO `json:"personnel" validate:"required,min=1,dive"`
}

type CompleteSafetyChecklistDTO struct {
	Checklist map[string]bool `json:"safety_checklist" validate:"required"`
}

// --- IT service ---

type AssignTechnicianDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
}

type OnsiteReportDTO struct {
	Report string `json:"report" validate:"required,max=5000"`
}

// --- Other service ---

type CompleteOtherServiceDTO struct {
	CompletionNotes null.String `json:"completion_notes" validate:"omitempty,max=2000"`
}

// --- Ответы ---

type JobOrderDTO struct {
	ID            uint64                      `json:"id"`
	TicketCode    string                      `json:"ticket_code"`
	Type          constants.ServiceableKind   `json:"type"`
	TypeLabel     string                      `json:"type_label"`
	ServiceableID uint64                      `json:"serviceable_id"`
	ScheduledDate string                      `json:"scheduled_date"`
	ScheduledTime string                      `json:"scheduled_time"`
	ClientName    string                      `json:"client_name"`
	Address       string                      `json:"address"`
	ContactPerson string                      `json:"contact_person"`
	ContactNumber string                      `json:"contact_number"`
	Email         null.String                 `json:"email"`
	Remarks       null.String                 `json:"remarks"`
	Status        string                      `json:"status"`
	StatusLabel   string                      `json:"status_label"`
	ErrorCount    int                         `json:"error_count"`
	CreatedBy     uint64                      `json:"created_by"`
	CreatorName   string                      `json:"creator_name"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     *time.Time                  `json:"deleted_at,omitempty"`
	Detail        interface{}                 `json:"serviceable,omitempty"`
	Cancellation  *entities.CancelledJobOrder `json:"cancellation,omitempty"`
}

func NewJobOrderDTO(jo *entities.JobOrder) JobOrderDTO {
	return JobOrderDTO{
		ID:            jo.ID,
		TicketCode:    jo.TicketCode,
		Type:          jo.Serviceable.Kind,
		TypeLabel:     jo.Serviceable.Kind.Label(),
		ServiceableID: jo.Serviceable.ID,
		ScheduledDate: jo.ScheduledDate.Format(types.DateLayout),
		ScheduledTime: jo.ScheduledTime,
		ClientName:    jo.ClientName,
		Address:       jo.Address,
		ContactPerson: jo.ContactPerson,
		ContactNumber: jo.ContactNumber,
		Email:         jo.Email,
		Remarks:       jo.Remarks,
		Status:        jo.Status,
		StatusLabel:   constants.Label(jo.Status),
		ErrorCount:    jo.ErrorCount,
		CreatedBy:     jo.CreatedBy,
		CreatorName:   jo.CreatorName,
		CreatedAt:     jo.CreatedAt,
		UpdatedAt:     jo.UpdatedAt,
		DeletedAt:     jo.DeletedAt,
	}
}

func NewJobOrderDTOs(list []entities.JobOrder) []JobOrderDTO {
	out := make([]JobOrderDTO, 0, len(list))
	for i := range list {
		out = append(out, NewJobOrderDTO(&list[i]))
	}
	return out
}
