package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Incident struct {
	ID           uint64      `json:"id" db:"id"`
	JobOrderID   null.Uint64 `json:"job_order_id" db:"job_order_id"`
	HaulingID    null.Uint64 `json:"hauling_id" db:"hauling_id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description" db:"description"`
	Location     string      `json:"location" db:"location"`
	IncidentDate time.Time   `json:"incident_date" db:"incident_date"`
	ReportedBy   uint64      `json:"reported_by" db:"reported_by"`
	Status       string      `json:"status" db:"status"`
	VerifiedBy   null.Uint64 `json:"verified_by" db:"verified_by"`
	VerifiedAt   null.Time   `json:"verified_at" db:"verified_at"`
	Remarks      null.String `json:"remarks" db:"remarks"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at" db:"deleted_at"`
}
