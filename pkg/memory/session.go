package memory

import (
	"encoding/json"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/tidwall/gjson"
)

// Session mirrors the property currently on screen so a reload lands on the
// same view. Every write overwrites the previous value.
type Session struct {
	kv *storage.BestEffort
}

func NewSession(kv *storage.BestEffort) *Session {
	return &Session{kv: kv}
}

// Read returns the mirrored session. Anything that is not a JSON object with
// a UPRN reads as absent.
func (s *Session) Read() (bins.Property, bool) {
	raw, ok := s.kv.Read(SessionKey)
	if !ok || !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return bins.Property{}, false
	}
	return bins.DecodeProperty(raw)
}

func (s *Session) Write(p bins.Property) {
	if p.UPRN == "" {
		s.Clear()
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	s.kv.Write(SessionKey, string(payload))
}

func (s *Session) Clear() {
	s.kv.Clear(SessionKey)
}
