package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID            uint64     `json:"id" db:"id"`
	EmployeeNo    string     `json:"employee_no" db:"employee_no"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Position      string     `json:"position" db:"position"`
	Department    string     `json:"department" db:"department"`
	ContactNumber string     `json:"contact_number" db:"contact_number"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" db:"deleted_at"`
}

type Truck struct {
	ID          uint64          `json:"id" db:"id"`
	PlateNumber string          `json:"plate_number" db:"plate_number"`
	Model       string          `json:"model" db:"model"`
	Capacity    decimal.Decimal `json:"capacity" db:"capacity"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at" db:"deleted_at"`
}

type User struct {
	ID         uint64      `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Email      string      `json:"email" db:"email"`
	Password   string      `json:"-" db:"password"`
	Role       string      `json:"role" db:"role"`
	EmployeeID null.Uint64 `json:"employee_id" db:"employee_id"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}
