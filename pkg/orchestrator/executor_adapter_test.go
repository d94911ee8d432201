package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modgw/tlm/pkg/changeengine"
	"github.com/modgw/tlm/pkg/interfaceresolver"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/moduledesc/testcatalog"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenant"
)

func TestJobExecutorExecuteInstall(t *testing.T) {
	modB := moduledesc.ModuleDescriptor{ID: "modB-1.0.0", Name: "modB"}
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Requires: []string{"modB"}}
	catalog := testcatalog.New(modA, modB)
	reg := registry.New(newMemStore(), false)
	require.NoError(t, reg.Add(tenant.New(tenant.Descriptor{ID: "t1"})))

	proxy := &trackingProxy{}
	engine := changeengine.New(reg, catalog, interfaceresolver.New(nil), proxy)
	orch := New(catalog, proxy, engine, noUsers{})
	exec := NewJobExecutor(reg, planner.New(catalog), orch, nil)

	enabled, disabled, duration, err := exec.Execute(context.Background(), "install", "t1", "modA-1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 2, enabled) // modA pulls in modB
	assert.Equal(t, 0, disabled)
	assert.GreaterOrEqual(t, duration.Nanoseconds(), int64(0))

	tn, err := reg.Get("t1")
	require.NoError(t, err)
	assert.True(t, tn.IsEnabled("modA-1.0.0"))
	assert.True(t, tn.IsEnabled("modB-1.0.0"))
}

func TestJobExecutorExecuteDisable(t *testing.T) {
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA"}
	catalog := testcatalog.New(modA)
	reg := registry.New(newMemStore(), false)
	require.NoError(t, reg.Add(tenant.New(tenant.Descriptor{ID: "t1"})))

	proxy := &trackingProxy{}
	engine := changeengine.New(reg, catalog, interfaceresolver.New(nil), proxy)
	orch := New(catalog, proxy, engine, noUsers{})
	exec := NewJobExecutor(reg, planner.New(catalog), orch, nil)

	_, _, _, err := exec.Execute(context.Background(), "install", "t1", "modA-1.0.0")
	require.NoError(t, err)

	enabled, disabled, _, err := exec.Execute(context.Background(), "disable", "t1", "modA-1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 0, enabled)
	assert.Equal(t, 1, disabled)

	tn, err := reg.Get("t1")
	require.NoError(t, err)
	assert.False(t, tn.IsEnabled("modA-1.0.0"))
}

func TestJobExecutorUnknownTenant(t *testing.T) {
	catalog := testcatalog.New()
	reg := registry.New(newMemStore(), false)
	proxy := &trackingProxy{}
	engine := changeengine.New(reg, catalog, interfaceresolver.New(nil), proxy)
	orch := New(catalog, proxy, engine, noUsers{})
	exec := NewJobExecutor(reg, planner.New(catalog), orch, nil)

	_, _, _, err := exec.Execute(context.Background(), "install", "missing", "modA-1.0.0")
	assert.Error(t, err)
}
