package tenantstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONModuleMap is a custom GORM type for a moduleId -> enableTimestamp map,
// stored as a JSON text column.
type JSONModuleMap map[string]time.Time

// Scan implements sql.Scanner.
func (m *JSONModuleMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONModuleMap: %T", value)
	}
	if len(bytes) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value implements driver.Valuer.
func (m JSONModuleMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TenantRecord is the persisted row for one tenant.
type TenantRecord struct {
	ID          string        `gorm:"primaryKey;column:id;type:varchar(255)"`
	Name        string        `gorm:"column:name"`
	Description string        `gorm:"column:description"`
	Enabled     JSONModuleMap `gorm:"column:enabled;type:text"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (TenantRecord) TableName() string { return "tenants" }
