package app

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// invariantRegistry collects module invariants for the EndBlocker. It
// stands in for x/crisis, which this chain does not run: broken invariants
// are logged rather than halting the chain.
type invariantRegistry struct {
	routes []invariantRoute
}

type invariantRoute struct {
	module string
	route  string
	check  sdk.Invariant
}

var _ sdk.InvariantRegistry = (*invariantRegistry)(nil)

func newInvariantRegistry() *invariantRegistry {
	return &invariantRegistry{}
}

// RegisterRoute implements sdk.InvariantRegistry
func (r *invariantRegistry) RegisterRoute(moduleName, route string, invar sdk.Invariant) {
	r.routes = append(r.routes, invariantRoute{module: moduleName, route: route, check: invar})
}

// Len returns the number of registered invariants
func (r *invariantRegistry) Len() int {
	return len(r.routes)
}

// AssertAll runs every invariant against a cache of ctx and returns the
// messages of the broken ones
func (r *invariantRegistry) AssertAll(ctx sdk.Context) []string {
	var broken []string
	for _, ir := range r.routes {
		cacheCtx, _ := ctx.CacheContext()
		if msg, stop := ir.check(cacheCtx); stop {
			broken = append(broken, msg)
		}
	}
	return broken
}

// Routes returns the registered invariant routes as module/route
func (r *invariantRegistry) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for _, ir := range r.routes {
		out = append(out, fmt.Sprintf("%s/%s", ir.module, ir.route))
	}
	return out
}
