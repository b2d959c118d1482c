package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"job-order-system/pkg/constants"
)

// ServiceableRef - ссылка на запись услуги (waste management / IT service / other service).
// Kind и ID всегда заданы вместе.
type ServiceableRef struct {
	Kind constants.ServiceableKind `json:"type"`
	ID   uint64                    `json:"id"`
}

func WasteManagementRef(id uint64) ServiceableRef {
	return ServiceableRef{Kind: constants.KindWasteManagement, ID: id}
}

func ITServiceRef(id uint64) ServiceableRef {
	return ServiceableRef{Kind: constants.KindITService, ID: id}
}

func OtherServiceRef(id uint64) ServiceableRef {
	return ServiceableRef{Kind: constants.KindOtherService, ID: id}
}

// Valid: оба поля заданы и тип известен.
func (r ServiceableRef) Valid() bool {
	return r.Kind.Valid() && r.ID > 0
}

type JobOrder struct {
	ID            uint64         `json:"id" db:"id"`
	TicketCode    string         `json:"ticket_code" db:"ticket_code"`
	Serviceable   ServiceableRef `json:"serviceable"`
	ScheduledDate time.Time      `json:"scheduled_date" db:"scheduled_date"`
	ScheduledTime string         `json:"scheduled_time" db:"scheduled_time"`
	ClientName    string         `json:"client_name" db:"client_name"`
	Address       string         `json:"address" db:"address"`
	ContactPerson string         `json:"contact_person" db:"contact_person"`
	ContactNumber string         `json:"contact_number" db:"contact_number"`
	Email         null.String    `json:"email" db:"email"`
	Remarks       null.String    `json:"remarks" db:"remarks"`
	CreatedBy     uint64         `json:"created_by" db:"created_by"`
	CreatorName   string         `json:"creator_name" db:"-"`
	Status        string         `json:"status" db:"status"`
	ErrorCount    int            `json:"error_count" db:"error_count"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at" db:"deleted_at"`
}

func (j *JobOrder) IsArchived() bool {
	return j.DeletedAt != nil
}

func (j *JobOrder) IsOwnedBy(userID uint64) bool {
	return j.CreatedBy != 0 && j.CreatedBy == userID
}

// CancelledJobOrder - причина перевода в failed/dropped/closed. Не изменяется.
type CancelledJobOrder struct {
	ID          uint64    `json:"id" db:"id"`
	JobOrderID  uint64    `json:"job_order_id" db:"job_order_id"`
	Status      string    `json:"status" db:"status"`
	Reason      string    `json:"reason" db:"reason"`
	CancelledBy uint64    `json:"cancelled_by" db:"cancelled_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
