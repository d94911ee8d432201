// Package tenancy resolves the Kubernetes namespace a request's RBAC checks
// run against, and carries it through context for the TLM server's
// middleware chain. It supports single-tenant (backward compatible) and
// namespace-based multi-tenant modes.
package tenancy

// TenancyMode controls how tenant context is resolved.
type TenancyMode string

const (
	// ModeSingle uses "default" namespace for all requests (backward compat).
	ModeSingle TenancyMode = "single"
	// ModeNamespace requires namespace per request (multi-tenant).
	ModeNamespace TenancyMode = "namespace"
)
