// Package bootstrap performs the one-shot load of a tenantstore.Store into
// a registry.Registry at startup.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/modgw/tlm/internal/errs"
	"github.com/modgw/tlm/pkg/registry"
	"github.com/modgw/tlm/pkg/tenant"
	"github.com/modgw/tlm/pkg/tenantstore"
)

// Run loads store into reg unless reg is already populated (another node
// may have already bootstrapped a cluster-shared registry). When store is
// nil, the registry is left empty. Every loaded record bypasses the store
// round trip: List already read it, so the load goes straight to memory.
func Run(reg *registry.Registry, store tenantstore.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if len(reg.Keys()) > 0 {
		logger.Info("tenant registry already populated, skipping bootstrap")
		return nil
	}

	if store == nil {
		logger.Info("no store configured, starting with an empty registry")
		return nil
	}

	tenants, err := store.List()
	if err != nil {
		return errs.Internal(err, "bootstrap: list tenants from store")
	}

	seen := make(map[string]bool, len(tenants))
	var failures []string
	var loaded []*tenant.Tenant
	for _, t := range tenants {
		if seen[t.ID] {
			failures = append(failures, fmt.Sprintf("duplicate tenant id %s in store", t.ID))
			continue
		}
		seen[t.ID] = true
		loaded = append(loaded, t)
	}

	if len(failures) > 0 {
		return errs.Internal(nil, "bootstrap: %s", strings.Join(failures, "; "))
	}

	reg.Load(loaded)
	logger.Info("bootstrap loaded tenants", "count", len(loaded))
	return nil
}
