package tlmserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modgw/tlm/pkg/changeengine"
	"github.com/modgw/tlm/pkg/interfaceresolver"
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/moduledesc/testcatalog"
	"github.com/modgw/tlm/pkg/orchestrator"
	"github.com/modgw/tlm/pkg/planner"
	"github.com/modgw/tlm/pkg/proxyapi"
	"github.com/modgw/tlm/pkg/rctx"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenant"
)

// fakeProxy is a no-op proxyapi.Proxy for HTTP-handler tests, where only
// the planning/registry-mutation path matters.
type fakeProxy struct{}

func (fakeProxy) CallSystemInterface(tenantID, moduleID, path string, jsonBody []byte, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{}
}
func (fakeProxy) AutoDeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{}
}
func (fakeProxy) AutoUndeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) proxyapi.Result {
	return proxyapi.Result{}
}

type noUsers struct{}

func (noUsers) GetModuleUser(mid string) ([]string, error) { return nil, nil }

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	catalog := testcatalog.New(
		moduledesc.ModuleDescriptor{ID: "modA-1.0.0", Name: "modA", Version: "1.0.0"},
	)

	reg := registry.New(nil, true)
	pl := planner.New(catalog)
	resolver := interfaceresolver.New(nil)
	engine := changeengine.New(reg, catalog, resolver, fakeProxy{})
	orch := orchestrator.New(catalog, fakeProxy{}, engine, noUsers{})

	srv := New(Deps{
		Registry:     reg,
		Planner:      pl,
		Orchestrator: orch,
		Catalog:      catalog,
	})
	srv.MountRoutes()
	return srv, reg
}

func TestHealthzReturnsAlive(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
}

func TestCreateAndGetTenant(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(createTenantRequest{ID: "t1", Name: "Tenant One"})
	req := httptest.NewRequest(http.MethodPost, "/api/tlm/v1/tenants/", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/tlm/v1/tenants/t1", nil)
	rr = httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got tenant.Tenant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "Tenant One", got.Descriptor.Name)
}

func TestGetUnknownTenantIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tlm/v1/tenants/missing", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSimulateInstallPlan(t *testing.T) {
	srv, reg := newTestServer(t)
	require.NoError(t, reg.Add(tenant.New(tenant.Descriptor{ID: "t1"})))

	req := httptest.NewRequest(http.MethodGet, "/api/tlm/v1/install-plans/t1?module=modA-1.0.0&action=enable", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var plan moduledesc.Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plan))
	require.Len(t, plan, 1)
	assert.Equal(t, moduledesc.ActionEnable, plan[0].Action)
}

func TestInstallSynchronousApply(t *testing.T) {
	srv, reg := newTestServer(t)
	require.NoError(t, reg.Add(tenant.New(tenant.Descriptor{ID: "t1"})))

	body, _ := json.Marshal(moduleActionRequest{ModuleID: "modA-1.0.0"})
	req := httptest.NewRequest(http.MethodPost, "/api/tlm/v1/tenants/t1/install", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	tn, err := reg.Get("t1")
	require.NoError(t, err)
	assert.True(t, tn.IsEnabled("modA-1.0.0"))
}
