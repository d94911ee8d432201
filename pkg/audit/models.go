package audit

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// EventType distinguishes the two kinds of TLM event the audit trail
// records.
type EventType string

const (
	// EventTransition is recorded by the orchestrator after each
	// ChangeEngine transition it commits.
	EventTransition EventType = "transition"
	// EventPlanRejected is recorded by the tlmserver handlers when
	// Planner.Plan rejects a requested plan.
	EventPlanRejected EventType = "plan_rejected"
)

// JSONDetail is a free-form JSON column for event-specific fields (module
// ids, diagnostics, plan contents).
type JSONDetail map[string]any

func (d *JSONDetail) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return nil
	}
	if len(b) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(b, d)
}

func (d JSONDetail) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Event is one immutable audit record.
type Event struct {
	ID        string     `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	TenantID  string     `json:"tenantId" gorm:"column:tenant_id;index"`
	Type      EventType  `json:"type" gorm:"column:type"`
	Actor     string     `json:"actor" gorm:"column:actor"`
	Module    string     `json:"module,omitempty" gorm:"column:module"`
	Outcome   string     `json:"outcome" gorm:"column:outcome"`
	Detail    JSONDetail `json:"detail,omitempty" gorm:"column:detail;type:text"`
	CreatedAt time.Time  `json:"createdAt" gorm:"column:created_at;autoCreateTime;index"`
}

// TableName returns the GORM table name.
func (Event) TableName() string { return "audit_events" }
