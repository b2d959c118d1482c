package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// CorrectionChanges хранится в JSONB как {"before": {...}, "after": {...}}.
type CorrectionChanges struct {
	Before map[string]interface{} `json:"before"`
	After  map[string]interface{} `json:"after"`
}

func (c CorrectionChanges) Fields() []string {
	out := make([]string, 0, len(c.After))
	for k := range c.After {
		out = append(out, k)
	}
	return out
}

type Correction struct {
	ID          uint64            `json:"id" db:"id"`
	JobOrderID  uint64            `json:"job_order_id" db:"job_order_id"`
	TicketCode  string            `json:"ticket_code" db:"-"`
	Target      string            `json:"target" db:"target"`
	Changes     CorrectionChanges `json:"changes" db:"changes"`
	Reason      string            `json:"reason" db:"reason"`
	Status      string            `json:"status" db:"status"`
	Remarks     null.String       `json:"remarks" db:"remarks"`
	SubmittedBy uint64            `json:"submitted_by" db:"submitted_by"`
	ResolvedBy  null.Uint64       `json:"resolved_by" db:"resolved_by"`
	ResolvedAt  null.Time         `json:"resolved_at" db:"resolved_at"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}
