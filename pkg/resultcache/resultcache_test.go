package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedule(date string) bins.Schedule {
	return bins.Schedule{
		Postcode:    "SL6 1XX",
		Collections: []bins.Collection{{Date: date, Bins: []string{"black"}}},
	}
}

func TestWriteThenRead(t *testing.T) {
	c := New(storage.NewBestEffort(storage.NewMemory(), nil))
	at := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	c.write("1000001", schedule("2026-10-19"), at)

	e, ok := c.Read("1000001")
	require.True(t, ok)
	assert.Equal(t, schedule("2026-10-19"), e.Data)
	assert.True(t, e.CapturedAt.Equal(at))

	_, ok = c.Read("1000002")
	assert.False(t, ok)
	assert.Equal(t, []string{"1000001"}, c.List())
}

func TestKeysAreNamespacedPerProperty(t *testing.T) {
	c := New(storage.NewBestEffort(storage.NewMemory(), nil))
	c.Write("1", schedule("2026-10-19"))
	c.Write("2", schedule("2026-10-26"))

	e1, ok := c.Read("1")
	require.True(t, ok)
	e2, ok := c.Read("2")
	require.True(t, ok)
	assert.Equal(t, "2026-10-19", e1.Data.Collections[0].Date)
	assert.Equal(t, "2026-10-26", e2.Data.Collections[0].Date)
}

func TestReadToleratesMalformedEntries(t *testing.T) {
	m := storage.NewMemory()
	c := New(storage.NewBestEffort(m, nil))
	ctx := context.Background()

	for _, raw := range []string{"{oops", `"text"`, `{"ts":1,"data":[1]}`, `42`} {
		require.NoError(t, m.Put(ctx, KeyPrefix+"9", raw))
		_, ok := c.Read("9")
		assert.False(t, ok, raw)
	}
}

func TestReadAcceptsBareSchedule(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.Put(context.Background(), KeyPrefix+"5", `{"postcode":"SL6 1XX","upcoming":[{"date":"2026-10-19","bins":["green"]}]}`))

	e, ok := New(storage.NewBestEffort(m, nil)).Read("5")
	require.True(t, ok)
	assert.True(t, e.CapturedAt.IsZero())
	assert.True(t, e.Data.Legacy())
	assert.Equal(t, "green", e.Data.Collections[0].Bins[0])
}

func TestFreshOn(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)

	e := &Entry{Data: schedule("2026-10-19")}
	assert.True(t, e.FreshOn(now))
	assert.False(t, e.FreshOn(now.Add(2*time.Hour)))

	assert.False(t, (&Entry{Data: schedule("not-a-date")}).FreshOn(now))
	assert.False(t, (&Entry{}).FreshOn(now))
	var nilEntry *Entry
	assert.False(t, nilEntry.FreshOn(now))
}
