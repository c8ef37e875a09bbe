// Package memory remembers which property the user cares about: the default
// property chosen explicitly, and the last session mirrored for reloads.
package memory

import (
	"encoding/json"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/storage"
)

const (
	DefaultKey = "bindicatorDefaultUPRN"
	SessionKey = "bindicator:lastSession"
)

// Identity persists the default property.
type Identity struct {
	kv *storage.BestEffort
}

func NewIdentity(kv *storage.BestEffort) *Identity {
	return &Identity{kv: kv}
}

// Read returns the saved default property. Values written by older versions
// as a bare UPRN string are still understood.
func (i *Identity) Read() (bins.Property, bool) {
	raw, ok := i.kv.Read(DefaultKey)
	if !ok {
		return bins.Property{}, false
	}
	return bins.DecodeProperty(raw)
}

// Write saves p as the default. It returns false only when p has no UPRN;
// storage failures are ignored and the returned value stays authoritative.
func (i *Identity) Write(p bins.Property) (bins.Property, bool) {
	if p.UPRN == "" {
		return bins.Property{}, false
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return p, true
	}
	i.kv.Write(DefaultKey, string(payload))
	return p, true
}

func (i *Identity) Clear() {
	i.kv.Clear(DefaultKey)
}
