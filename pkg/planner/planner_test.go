package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/moduledesc/testcatalog"
	"github.com/modgw/tlm/pkg/tenant"
)

func TestPlanFreshInstallOrdersDepsBeforeTarget(t *testing.T) {
	modB := moduledesc.ModuleDescriptor{ID: "modB-1.0.0", Name: "modB", Version: "1.0.0"}
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0", Requires: []string{"modB"}}
	catalog := testcatalog.New(modA, modB)
	p := New(catalog)

	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	plan, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modA-1.0.0", Action: moduledesc.ActionEnable},
	}, Options{})
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, "modB-1.0.0", plan[0].ID)
	assert.Equal(t, "modA-1.0.0", plan[1].ID)
}

func TestPlanUpgradeCase(t *testing.T) {
	modA1 := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0"}
	modA2 := moduledesc.ModuleDescriptor{ID: "modA-1.1.0", Name: "modA", Version: "1.1.0"}
	catalog := testcatalog.New(modA1, modA2)
	p := New(catalog)

	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	tn.EnableModule("modA-1.0.0", tn.Enabled["modA-1.0.0"])

	plan, err := p.Plan(tn, nil, Options{})
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, "modA-1.1.0", plan[0].ID)
	assert.Equal(t, "modA-1.0.0", plan[0].From)
}

func TestPlanDependencyViolationDisablesDependentFirst(t *testing.T) {
	modB := moduledesc.ModuleDescriptor{ID: "modB-1.0.0", Name: "modB", Version: "1.0.0"}
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0", Requires: []string{"modB"}}
	catalog := testcatalog.New(modA, modB)
	p := New(catalog)

	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	tn.EnableModule("modA-1.0.0", tn.Enabled["modA-1.0.0"])
	tn.EnableModule("modB-1.0.0", tn.Enabled["modB-1.0.0"])

	plan, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modB-1.0.0", Action: moduledesc.ActionDisable},
	}, Options{})
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, "modA-1.0.0", plan[0].ID)
	assert.Equal(t, moduledesc.ActionDisable, plan[0].Action)
	assert.Equal(t, "modB-1.0.0", plan[1].ID)
}

func TestPlanEnableAlreadyEnabledProducesUpToDate(t *testing.T) {
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0"}
	catalog := testcatalog.New(modA)
	p := New(catalog)

	tn := tenant.New(tenant.Descriptor{ID: "t1"})
	tn.EnableModule("modA-1.0.0", tn.Enabled["modA-1.0.0"])

	plan, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modA-1.0.0", Action: moduledesc.ActionEnable},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, moduledesc.ActionUpToDate, plan[0].Action)
}

func TestPlanEnableUnknownModuleIsNotFound(t *testing.T) {
	catalog := testcatalog.New()
	p := New(catalog)
	tn := tenant.New(tenant.Descriptor{ID: "t1"})

	_, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modA-1.0.0", Action: moduledesc.ActionEnable},
	}, Options{})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestPlanUpToDateNotEnabledIsNotFound(t *testing.T) {
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0"}
	catalog := testcatalog.New(modA)
	p := New(catalog)
	tn := tenant.New(tenant.Descriptor{ID: "t1"})

	_, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modA-1.0.0", Action: moduledesc.ActionUpToDate},
	}, Options{})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestPlanDisableNotEnabledIsNotFound(t *testing.T) {
	modA := moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0"}
	catalog := testcatalog.New(modA)
	p := New(catalog)
	tn := tenant.New(tenant.Descriptor{ID: "t1"})

	_, err := p.Plan(tn, []moduledesc.TenantModuleAction{
		{ID: "modA-1.0.0", Action: moduledesc.ActionDisable},
	}, Options{})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
