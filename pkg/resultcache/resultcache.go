package resultcache

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/tidwall/gjson"
)

const KeyPrefix = "bindicator:lastResult:"

// Entry is the last schedule fetched for a property.
type Entry struct {
	Data       bins.Schedule
	CapturedAt time.Time
}

// FreshOn reports whether the first upcoming collection falls on the UTC
// calendar day of now. Only fresh entries may stand in for a fetch.
func (e *Entry) FreshOn(now time.Time) bool {
	if e == nil {
		return false
	}
	next, ok := e.Data.Next()
	if !ok || next.Date == "" {
		return false
	}
	d, err := time.Parse("2006-01-02", next.Date)
	if err != nil {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type Cache struct {
	kv *storage.BestEffort
}

func New(kv *storage.BestEffort) *Cache {
	return &Cache{kv: kv}
}

func key(uprn string) string { return KeyPrefix + uprn }

// Read returns the cached entry for uprn. Unreadable entries are misses.
func (c *Cache) Read(uprn string) (*Entry, bool) {
	if uprn == "" {
		return nil, false
	}
	raw, ok := c.kv.Read(key(uprn))
	if !ok || !gjson.Valid(raw) {
		return nil, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, false
	}

	entry := &Entry{}
	payload := doc
	// Entries are normally wrapped as {ts, data}; bare schedules are accepted.
	if data := doc.Get("data"); data.Exists() {
		if !data.IsObject() {
			return nil, false
		}
		payload = data
		if ts := doc.Get("ts"); ts.Type == gjson.Number {
			entry.CapturedAt = time.UnixMilli(ts.Int())
		}
	}
	s, err := bins.DecodeSchedule([]byte(payload.Raw))
	if err != nil {
		return nil, false
	}
	entry.Data = s
	return entry, true
}

func (c *Cache) Write(uprn string, s bins.Schedule) {
	c.write(uprn, s, time.Now())
}

func (c *Cache) write(uprn string, s bins.Schedule, at time.Time) {
	if uprn == "" {
		return
	}
	payload, err := json.Marshal(struct {
		TS   int64         `json:"ts"`
		Data bins.Schedule `json:"data"`
	}{TS: at.UnixMilli(), Data: s})
	if err != nil {
		return
	}
	c.kv.Write(key(uprn), string(payload))
}

// List returns the UPRNs that have a cached entry.
func (c *Cache) List() []string {
	keys := c.kv.Keys(KeyPrefix)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, KeyPrefix))
	}
	return out
}
