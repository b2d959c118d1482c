package dto

import "github.com/aarondl/null/v8"

type CreateIncidentDTO struct {
	JobOrderID   null.Uint64 `json:"job_order_id" validate:"omitempty,gt=0"`
	HaulingID    null.Uint64 `json:"hauling_id" validate:"omitempty,gt=0"`
	Title        string      `json:"title" validate:"required,max=255"`
	Description  string      `json:"description" validate:"required,max=5000"`
	Location     string      `json:"location" validate:"omitempty,max=255"`
	IncidentDate string      `json:"incident_date" validate:"required,datetime=2006-01-02"`
}

// VerifyIncidentDTO: статус проверяется сервисом (значение "no incident" содержит пробел).
type VerifyIncidentDTO struct {
	Status  string      `json:"status" validate:"required"`
	Remarks null.String `json:"remarks" validate:"omitempty,max=1000"`
}
