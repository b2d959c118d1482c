package dto

import "github.com/shopspring/decimal"

type CreateTruckDTO struct {
	PlateNumber string          `json:"plate_number" validate:"required,max=20"`
	Model       string          `json:"model" validate:"required,max=100"`
	Capacity    decimal.Decimal `json:"capacity" validate:"gt=0"`
	Status      string          `json:"status" validate:"omitempty,oneof=available in-use maintenance"`
}

type CreateEmployeeDTO struct {
	EmployeeNo    string `json:"employee_no" validate:"required,max=50"`
	FirstName     string `json:"first_name" validate:"required,max=100"`
	LastName      string `json:"last_name" validate:"required,max=100"`
	Position      string `json:"position" validate:"required,max=100"`
	Department    string `json:"department" validate:"required,max=100"`
	ContactNumber string `json:"contact_number" validate:"omitempty,contact_number"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}
