// Package hydrator backfills the address text of properties that were
// restored by UPRN only.
package hydrator

import (
	"context"

	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/memory"
	"github.com/bindicator/bindicator/pkg/postcode"
)

type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

type Hydrator struct {
	lookup   api.AddressLookup
	identity *memory.Identity
	log      Logger
}

// New returns a Hydrator. identity may be nil, in which case the saved
// default is never updated. Callers that change the default concurrently
// should pass nil and write the result themselves.
func New(lookup api.AddressLookup, identity *memory.Identity, log Logger) *Hydrator {
	if log == nil {
		log = nopLogger{}
	}
	return &Hydrator{lookup: lookup, identity: identity, log: log}
}

// Hydrate looks p up again under pc and returns it with the address text
// filled in. It reports false when p already has an address, the lookup
// fails or has no row for p's UPRN, or ctx ends first. When the hydrated
// property is the saved default, the Identity Store is updated as well.
// Nothing is written once ctx is done.
func (h *Hydrator) Hydrate(ctx context.Context, p bins.Property, pc string) (bins.Property, bool) {
	if !p.NeedsHydration() {
		return p, false
	}
	pretty, err := postcode.Parse(pc)
	if err != nil {
		h.log.Debugf("hydrator: skipping %s, postcode %q: %v", p.UPRN, pc, err)
		return p, false
	}

	addrs, err := h.lookup.LookupAddresses(ctx, pretty)
	if ctx.Err() != nil {
		return p, false
	}
	if err != nil {
		h.log.Debugf("hydrator: lookup %s for %s: %v", pretty, p.UPRN, err)
		return p, false
	}

	var match *bins.Address
	for i := range addrs {
		if addrs[i].UPRN == p.UPRN {
			match = &addrs[i]
			break
		}
	}
	if match == nil || match.Address == "" {
		h.log.Debugf("hydrator: %s not listed under %s", p.UPRN, pretty)
		return p, false
	}

	hydrated := match.Property()
	if hydrated.Postcode == "" {
		hydrated.Postcode = pretty
	}

	if ctx.Err() != nil {
		return p, false
	}
	if h.identity != nil {
		if def, ok := h.identity.Read(); ok && def.Same(hydrated) {
			h.identity.Write(hydrated)
		}
	}
	return hydrated, true
}
