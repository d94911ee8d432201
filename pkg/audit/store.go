// Package audit records the TLM's trail of tenant module transitions and
// rejected install plans, with a time-based retention worker.
package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is an append-only log of audit Events, backed by GORM.
type Store struct {
	db *gorm.DB
}

// NewStore builds a Store over an already-connected *gorm.DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the audit_events table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Event{}); err != nil {
		return fmt.Errorf("auto-migrate audit events: %w", err)
	}
	return nil
}

// Record appends a new event, assigning it an id and timestamp.
func (s *Store) Record(e Event) error {
	e.ID = uuid.New().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := s.db.Create(&e).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByTenant returns events for tenantID, newest first, capped at limit
// (a non-positive limit defaults to 50).
func (s *Store) ListByTenant(tenantID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	if err := s.db.Where("tenant_id = ?", tenantID).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list audit events for tenant %s: %w", tenantID, err)
	}
	return events, nil
}

// Get returns a single event by id.
func (s *Store) Get(id string) (*Event, error) {
	var e Event
	if err := s.db.Where("id = ?", id).First(&e).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit event %s: %w", id, err)
	}
	return &e, nil
}

// DeleteOlderThan removes every event created before cutoff, returning the
// number of rows removed.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&Event{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
