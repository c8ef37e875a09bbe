package coordinator

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/resultcache"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	sched bins.Schedule
	err   error
}

type call struct {
	uprn  string
	force bool
	ctx   context.Context
	reply chan result
}

// fakeService hands every fetch to the test through calls and blocks until
// the test replies. With ignoreCancel set it keeps waiting after ctx ends,
// like a response already on the wire.
type fakeService struct {
	calls        chan *call
	ignoreCancel bool
}

func newFakeService() *fakeService {
	return &fakeService{calls: make(chan *call, 16)}
}

func (f *fakeService) FetchSchedule(ctx context.Context, uprn string, force bool) (bins.Schedule, error) {
	c := &call{uprn: uprn, force: force, ctx: ctx, reply: make(chan result, 1)}
	f.calls <- c
	if f.ignoreCancel {
		r := <-c.reply
		return r.sched, r.err
	}
	select {
	case r := <-c.reply:
		return r.sched, r.err
	case <-ctx.Done():
		return bins.Schedule{}, ctx.Err()
	}
}

func (f *fakeService) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a schedule fetch")
		return nil
	}
}

func (f *fakeService) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch for %s", c.uprn)
	case <-time.After(30 * time.Millisecond):
	}
}

var today = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func sched(uprn, date string) bins.Schedule {
	return bins.Schedule{
		UPRN:        uprn,
		Postcode:    "SL6 1XX",
		Collections: []bins.Collection{{Date: date, Bins: []string{"black"}}},
	}
}

type fixture struct {
	svc     *fakeService
	cache   *resultcache.Cache
	c       *Coordinator
	settled chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		svc:     newFakeService(),
		cache:   resultcache.New(storage.NewBestEffort(storage.NewMemory(), nil)),
		settled: make(chan struct{}, 16),
	}
	f.c = New(Config{
		Service:  f.svc,
		Cache:    f.cache,
		Now:      func() time.Time { return today },
		OnSettle: func() { f.settled <- struct{}{} },
	})
	t.Cleanup(func() {
		f.c.Clear()
		f.c.Wait()
	})
	return f
}

func (f *fixture) waitSettled(t *testing.T) {
	t.Helper()
	select {
	case <-f.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never settled")
	}
}

func TestSelectEmptyClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.c.Select("1", 1)
	f.svc.next(t)

	f.c.Select("", 2)
	st := f.c.State()
	assert.Equal(t, Empty, st.Phase)
	assert.Nil(t, st.Display())
	f.svc.none(t)
}

func TestSelectSurfacesPrefillThenAuthoritativeData(t *testing.T) {
	f := newFixture(t)
	f.cache.Write("1000001", sched("1000001", "2026-10-12"))

	f.c.Select("1000001", 1)
	st := f.c.State()
	assert.Equal(t, Prefilled, st.Phase)
	require.NotNil(t, st.Prefill)
	assert.Nil(t, st.Data, "a stale cache entry is only a placeholder")
	assert.True(t, st.Loading())

	call := f.svc.next(t)
	assert.False(t, call.force)
	call.reply <- result{sched: sched("1000001", "2026-10-26")}
	f.waitSettled(t)

	st = f.c.State()
	assert.Equal(t, Ready, st.Phase)
	assert.Equal(t, "2026-10-26", st.Data.Collections[0].Date)
	assert.Same(t, st.Data, st.Prefill)

	cached, ok := f.cache.Read("1000001")
	require.True(t, ok)
	assert.Equal(t, "2026-10-26", cached.Data.Collections[0].Date)
}

func TestLaterSelectionWins(t *testing.T) {
	f := newFixture(t)
	f.svc.ignoreCancel = true

	f.c.Select("X", 1)
	x := f.svc.next(t)
	f.c.Select("Y", 2)
	y := f.svc.next(t)

	assert.Error(t, x.ctx.Err(), "the first fetch is cancelled")

	y.reply <- result{sched: sched("Y", "2026-10-20")}
	f.waitSettled(t)
	x.reply <- result{sched: sched("X", "2026-10-21")}
	f.c.Wait()

	st := f.c.State()
	assert.Equal(t, "Y", st.UPRN)
	assert.Equal(t, "Y", st.Data.UPRN)
	_, ok := f.cache.Read("X")
	assert.False(t, ok, "a discarded response is not cached")
}

func TestLateFailureOfCancelledFetchIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.svc.ignoreCancel = true

	f.c.Select("X", 1)
	x := f.svc.next(t)
	f.c.Select("Y", 2)
	y := f.svc.next(t)

	x.reply <- result{err: &api.Error{Status: http.StatusBadGateway, Message: "502"}}
	y.reply <- result{sched: sched("Y", "2026-10-20")}
	f.waitSettled(t)
	f.c.Wait()

	st := f.c.State()
	assert.Equal(t, Ready, st.Phase)
	assert.NoError(t, st.Err)
}

func TestReselectingSameKeyDoesNotStartSecondFetch(t *testing.T) {
	f := newFixture(t)
	f.c.Select("1", 1)
	first := f.svc.next(t)
	f.c.Select("1", 1)
	f.svc.none(t)
	assert.NoError(t, first.ctx.Err())

	first.reply <- result{sched: sched("1", "2026-10-20")}
	f.waitSettled(t)

	f.c.Select("1", 1)
	f.svc.none(t)
}

func TestNewEpochForcesRefetch(t *testing.T) {
	f := newFixture(t)
	f.c.Select("1", 1)
	first := f.svc.next(t)
	f.c.Select("1", 2)
	second := f.svc.next(t)
	assert.Error(t, first.ctx.Err())

	second.reply <- result{sched: sched("1", "2026-10-20")}
	f.waitSettled(t)
	assert.Equal(t, Ready, f.c.State().Phase)
}

func TestFreshCacheSuppressesRefetchOnRerender(t *testing.T) {
	f := newFixture(t)
	f.cache.Write("1", sched("1", "2026-10-19"))

	f.c.Select("1", 1)
	st := f.c.State()
	require.NotNil(t, st.Data, "today's cached schedule counts as current")
	call := f.svc.next(t)

	call.reply <- result{err: errors.New("network down")}
	f.waitSettled(t)
	st = f.c.State()
	assert.Equal(t, Errored, st.Phase)
	assert.Equal(t, "2026-10-19", st.Display().Collections[0].Date, "failures keep the data on screen")

	f.c.Select("1", 1)
	f.svc.none(t)

	f.c.Select("1", 2)
	f.svc.next(t)
}

func TestFailureKeepsDataAndWaitsForRefresh(t *testing.T) {
	f := newFixture(t)
	f.c.Select("1", 1)
	f.svc.next(t).reply <- result{sched: sched("1", "2026-10-20")}
	f.waitSettled(t)

	f.c.Select("1", 2)
	f.svc.next(t).reply <- result{err: &api.Error{Status: http.StatusServiceUnavailable, Message: "down"}}
	f.waitSettled(t)

	st := f.c.State()
	assert.Equal(t, Errored, st.Phase)
	assert.Equal(t, http.StatusServiceUnavailable, api.StatusCode(st.Err))
	require.NotNil(t, st.Data)

	f.c.Select("1", 2)
	f.svc.none(t)

	f.c.Refresh()
	refresh := f.svc.next(t)
	assert.True(t, refresh.force)
	assert.Equal(t, Prefilled, f.c.State().Phase)
	assert.NoError(t, f.c.State().Err)
	refresh.reply <- result{sched: sched("1", "2026-10-27")}
	f.waitSettled(t)
	assert.Equal(t, Ready, f.c.State().Phase)
}

func TestLegacyDataIsRefetched(t *testing.T) {
	f := newFixture(t)
	legacy, err := bins.DecodeSchedule([]byte(`{"postcode":"SL6 1XX","upcoming":[{"date":"2026-10-19","bins":["black"]}]}`))
	require.NoError(t, err)

	f.c.Select("1", 1)
	f.svc.next(t).reply <- result{sched: legacy}
	f.waitSettled(t)
	require.True(t, f.c.State().Data.Legacy())

	f.c.Select("1", 1)
	f.svc.next(t)
}

func TestSwitchingPropertyDropsPreviousData(t *testing.T) {
	f := newFixture(t)
	f.c.Select("1", 1)
	f.svc.next(t).reply <- result{sched: sched("1", "2026-10-20")}
	f.waitSettled(t)

	f.c.Select("2", 2)
	st := f.c.State()
	assert.Nil(t, st.Display())
	assert.Equal(t, Loading, st.Phase)
	f.svc.next(t)
}

func TestRestoreStartsInRestoringPhase(t *testing.T) {
	f := newFixture(t)
	f.cache.Write("1", sched("1", "2026-10-19"))
	f.c.Restore("1", 1)

	st := f.c.State()
	assert.Equal(t, Restoring, st.Phase)
	assert.True(t, st.Loading())
	require.NotNil(t, st.Display())
	f.svc.next(t).reply <- result{sched: sched("1", "2026-10-19")}
	f.waitSettled(t)
	assert.Equal(t, Ready, f.c.State().Phase)
}

func TestClearCancelsInFlight(t *testing.T) {
	f := newFixture(t)
	f.svc.ignoreCancel = true
	f.c.Select("1", 1)
	call := f.svc.next(t)

	f.c.Clear()
	assert.Error(t, call.ctx.Err())
	call.reply <- result{sched: sched("1", "2026-10-20")}
	f.c.Wait()

	assert.Equal(t, Empty, f.c.State().Phase)
	assert.Nil(t, f.c.State().Display())
	select {
	case <-f.settled:
		t.Fatal("a cancelled fetch must not settle")
	default:
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "prefilled", Prefilled.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
