package dto

import "github.com/aarondl/null/v8"

// SubmitCorrectionDTO: Changes - новые значения полей (after). Before вычисляется на сервере.
type SubmitCorrectionDTO struct {
	Target  string                 `json:"target" validate:"omitempty,oneof=job_order serviceable"`
	Changes map[string]interface{} `json:"changes" validate:"required,min=1"`
	Reason  string                 `json:"reason" validate:"required,max=1000"`
}

type ResolveCorrectionDTO struct {
	Status  string      `json:"status" validate:"required,oneof=approved rejected"`
	Remarks null.String `json:"remarks" validate:"omitempty,max=1000"`
}
