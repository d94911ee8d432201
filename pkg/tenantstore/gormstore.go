package tenantstore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/tenant"
)

// GormStore is a Store backed by a GORM connection (sqlite, mysql, or
// postgres, selected by the caller's dialector).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore over an already-connected *gorm.DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the tenants table.
func (s *GormStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&TenantRecord{}); err != nil {
		return fmt.Errorf("auto-migrate tenants: %w", err)
	}
	return nil
}

func toRecord(t *tenant.Tenant) *TenantRecord {
	enabled := make(JSONModuleMap, len(t.Enabled))
	for k, v := range t.Enabled {
		enabled[k] = v
	}
	return &TenantRecord{
		ID:          t.ID,
		Name:        t.Descriptor.Name,
		Description: t.Descriptor.Description,
		Enabled:     enabled,
	}
}

func fromRecord(r *TenantRecord) *tenant.Tenant {
	enabled := make(map[string]time.Time, len(r.Enabled))
	for k, v := range r.Enabled {
		enabled[k] = v
	}
	return &tenant.Tenant{
		ID: r.ID,
		Descriptor: tenant.Descriptor{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
		},
		Enabled: enabled,
	}
}

// Insert persists a brand-new tenant record.
func (s *GormStore) Insert(t *tenant.Tenant) error {
	if err := s.db.Create(toRecord(t)).Error; err != nil {
		return errs.Internal(err, "insert tenant %s", t.ID)
	}
	return nil
}

// UpdateDescriptor upserts a descriptor change: an existing record has its
// name/description updated with its enabled set left untouched; a missing
// one is created fresh with an empty enabled set.
func (s *GormStore) UpdateDescriptor(d tenant.Descriptor) error {
	record := &TenantRecord{ID: d.ID, Name: d.Name, Description: d.Description}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(record)
	if res.Error != nil {
		return errs.Internal(res.Error, "update descriptor for tenant %s", d.ID)
	}
	return nil
}

// UpdateModules persists a new enabled-module set. The value map is
// moduleId -> enableTimestamp, passed as map[string]any per the Store
// contract so callers outside this package don't need to import
// JSONModuleMap; this store converts it.
func (s *GormStore) UpdateModules(id string, enabled map[string]any) error {
	converted := make(JSONModuleMap, len(enabled))
	for k, v := range enabled {
		switch t := v.(type) {
		case time.Time:
			converted[k] = t
		default:
			return errs.Internal(nil, "update modules for tenant %s: unexpected value type %T for %s", id, v, k)
		}
	}

	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Model(&TenantRecord{}).Where("id = ?", id).Update("enabled", converted)
	if res.Error != nil {
		return errs.Internal(res.Error, "update modules for tenant %s", id)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("tenant %s not found", id)
	}
	return nil
}

// Delete removes a tenant record, returning errs.NotFound when absent.
func (s *GormStore) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&TenantRecord{})
	if res.Error != nil {
		return errs.Internal(res.Error, "delete tenant %s", id)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("tenant %s not found", id)
	}
	return nil
}

// List returns every persisted tenant record.
func (s *GormStore) List() ([]*tenant.Tenant, error) {
	var records []TenantRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, errs.Internal(err, "list tenants")
	}
	out := make([]*tenant.Tenant, 0, len(records))
	for i := range records {
		out = append(out, fromRecord(&records[i]))
	}
	return out, nil
}

// Get returns the persisted record for id, or errs.NotFound.
func (s *GormStore) Get(id string) (*tenant.Tenant, error) {
	var record TenantRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFound("tenant %s not found", id)
		}
		return nil, errs.Internal(err, "get tenant %s", id)
	}
	return fromRecord(&record), nil
}
