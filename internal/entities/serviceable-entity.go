package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

// WasteManagement - Form4.
type WasteManagement struct {
	ID                  uint64              `json:"id" db:"id"`
	WasteType           string              `json:"waste_type" db:"waste_type"`
	WasteDescription    string              `json:"waste_description" db:"waste_description"`
	EstimatedVolume     decimal.Decimal     `json:"estimated_volume" db:"estimated_volume"`
	Unit                string              `json:"unit" db:"unit"`
	AppraisalNotes      null.String         `json:"appraisal_notes" db:"appraisal_notes"`
	AppraisedAt         null.Time           `json:"appraised_at" db:"appraised_at"`
	ProposalAmount      decimal.NullDecimal `json:"proposal_amount" db:"proposal_amount"`
	ProposalNotes       null.String         `json:"proposal_notes" db:"proposal_notes"`
	ProposalSubmittedAt null.Time           `json:"proposal_submitted_at" db:"proposal_submitted_at"`
	ProposalApprovedAt  null.Time           `json:"proposal_approved_at" db:"proposal_approved_at"`
	AppraiserIDs        []uint64            `json:"appraiser_ids" db:"-"`
	Haulings            []Hauling           `json:"haulings" db:"-"`
	CreatedAt           time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" db:"updated_at"`
}

// ITService - заявка на IT-обслуживание.
type ITService struct {
	ID                 uint64      `json:"id" db:"id"`
	MachineType        string      `json:"machine_type" db:"machine_type"`
	Brand              string      `json:"brand" db:"brand"`
	Model              string      `json:"model" db:"model"`
	SerialNumber       null.String `json:"serial_number" db:"serial_number"`
	ProblemDescription string      `json:"problem_description" db:"problem_description"`
	TechnicianID       null.Uint64 `json:"technician_id" db:"technician_id"`
	InitialReport      null.String `json:"initial_report" db:"initial_report"`
	InitialReportAt    null.Time   `json:"initial_report_at" db:"initial_report_at"`
	FinalReport        null.String `json:"final_report" db:"final_report"`
	FinalReportAt      null.Time   `json:"final_report_at" db:"final_report_at"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// OtherService - Form5.
type OtherService struct {
	ID              uint64              `json:"id" db:"id"`
	ServiceName     string              `json:"service_name" db:"service_name"`
	Description     string              `json:"description" db:"description"`
	Amount          decimal.NullDecimal `json:"amount" db:"amount"`
	CompletionNotes null.String         `json:"completion_notes" db:"completion_notes"`
	CompletedAt     null.Time           `json:"completed_at" db:"completed_at"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

type HaulingPersonnel struct {
	EmployeeID uint64 `json:"employee_id" db:"employee_id"`
	Role       string `json:"role" db:"role"`
}

// Hauling - выезд на вывоз отходов по WasteManagement.
type Hauling struct {
	ID                   uint64             `json:"id" db:"id"`
	WasteManagementID    uint64             `json:"waste_management_id" db:"waste_management_id"`
	TruckID              uint64             `json:"truck_id" db:"truck_id"`
	TeamLeaderID         uint64             `json:"team_leader_id" db:"team_leader_id"`
	HaulingDate          time.Time          `json:"hauling_date" db:"hauling_date"`
	Status               string             `json:"status" db:"status"`
	SafetyChecklist      map[string]bool    `json:"safety_checklist" db:"safety_checklist"`
	ChecklistCompletedBy null.Uint64        `json:"checklist_completed_by" db:"checklist_completed_by"`
	ChecklistCompletedAt null.Time          `json:"checklist_completed_at" db:"checklist_completed_at"`
	Personnel            []HaulingPersonnel `json:"personnel" db:"-"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

func (h *Hauling) ChecklistDone() bool {
	return h.ChecklistCompletedAt.Valid
}
