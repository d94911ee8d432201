package tenantstore

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/tenant"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	s := NewGormStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestGormStoreInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	tn := tenant.New(tenant.Descriptor{ID: "t1", Name: "Tenant One"})
	tn.EnableModule("modA-1.0.0", time.Now().Truncate(time.Second))

	require.NoError(t, s.Insert(tn))

	got, err := s.Get("t1")
	require.NoError(t, err)
	require.Equal(t, "Tenant One", got.Descriptor.Name)
	require.True(t, got.IsEnabled("modA-1.0.0"))
}

func TestGormStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("missing")
	require.Error(t, err)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGormStoreUpdateModules(t *testing.T) {
	s := newTestStore(t)
	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	require.NoError(t, s.Insert(tn))

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.UpdateModules("t1", map[string]any{"modA-1.0.0": now}))

	got, err := s.Get("t1")
	require.NoError(t, err)
	require.True(t, got.IsEnabled("modA-1.0.0"))
}

func TestGormStoreUpdateModulesMissingTenant(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateModules("nope", map[string]any{"modA-1.0.0": time.Now()})
	require.Error(t, err)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGormStoreDeleteMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	require.NoError(t, s.Insert(tn))

	require.NoError(t, s.Delete("t1"))

	err := s.Delete("t1")
	require.Error(t, err)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGormStoreList(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert(tenant.New(tenant.Descriptor{ID: "t1"})))
	require.NoError(t, s.Insert(tenant.New(tenant.Descriptor{ID: "t2"})))

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGormStoreUpdateDescriptorPreservesModules(t *testing.T) {
	s := newTestStore(t)
	tn := tenant.New(tenant.Descriptor{ID: "t1", Name: "Old"})
	require.NoError(t, s.Insert(tn))
	require.NoError(t, s.UpdateModules("t1", map[string]any{"modA-1.0.0": time.Now()}))

	require.NoError(t, s.UpdateDescriptor(tenant.Descriptor{ID: "t1", Name: "New"}))

	got, err := s.Get("t1")
	require.NoError(t, err)
	require.Equal(t, "New", got.Descriptor.Name)
	require.True(t, got.IsEnabled("modA-1.0.0"))
}

func TestGormStoreUpdateDescriptorUpsertsMissingTenant(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpdateDescriptor(tenant.Descriptor{ID: "new", Name: "Fresh"}))

	got, err := s.Get("new")
	require.NoError(t, err)
	require.Equal(t, "Fresh", got.Descriptor.Name)
	require.Empty(t, got.Enabled)
}
