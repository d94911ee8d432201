// Package proxyapi defines the Proxy contract the TLM drives during
// tenant-init, permission broadcast, and auto-deploy/undeploy. The proxy
// itself -- invoking HTTP endpoints on behalf of a tenant, provisioning
// module instances -- is an external collaborator, out of scope for the
// TLM's own implementation.
package proxyapi

import (
	"github.com/modgw/tlm/pkg/moduledesc"
	"github.com/modgw/tlm/pkg/rctx"
)

// Result is the outcome of a Proxy call. Body carries the raw response
// payload when the caller needs it (the TLM does not, for any of its three
// call sites); Err is set on failure.
type Result struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Proxy invokes HTTP endpoints on modules on behalf of a tenant, and
// provisions/deprovisions module instances.
type Proxy interface {
	// CallSystemInterface POSTs jsonBody to path on moduleId, on behalf of
	// tenantId.
	CallSystemInterface(tenantID, moduleID, path string, jsonBody []byte, ctx rctx.Ctx) Result

	// AutoDeploy provisions an instance of md, if the deployment layer
	// requires one.
	AutoDeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) Result

	// AutoUndeploy deprovisions the instance of md.
	AutoUndeploy(md moduledesc.ModuleDescriptor, ctx rctx.Ctx) Result
}
