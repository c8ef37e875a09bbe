package coordinator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/resultcache"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds the collaborators of a Coordinator.
type Config struct {
	Service api.ScheduleService
	Cache   *resultcache.Cache
	Now     func() time.Time // defaults to time.Now
	Log     Logger           // optional; nil = no logging

	// OnSettle is called after a fetch result has been applied, from the
	// fetching goroutine with no coordinator lock held. Nil = no callback.
	OnSettle func()
}

// Coordinator drives schedule fetches for the selected property. At most one
// fetch is live; starting another cancels it, and a cancelled fetch never
// touches state when it eventually returns.
type Coordinator struct {
	svc      api.ScheduleService
	cache    *resultcache.Cache
	now      func() time.Time
	log      Logger
	onSettle func()

	mu       sync.Mutex
	state    State
	lastKey  string
	gen      uint64
	cancel   context.CancelFunc
	inflight bool

	wg sync.WaitGroup
}

func New(cfg Config) *Coordinator {
	c := &Coordinator{
		svc:      cfg.Service,
		cache:    cfg.Cache,
		now:      cfg.Now,
		log:      cfg.Log,
		onSettle: cfg.OnSettle,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	return c
}

func fetchKey(uprn string, epoch uint64) string {
	return uprn + "|" + strconv.FormatUint(epoch, 10)
}

// Select makes uprn the current selection. A new UPRN or a new epoch always
// fetches; repeating the last (uprn, epoch) pair only fetches when the data
// on hand is missing or in a legacy shape.
func (c *Coordinator) Select(uprn string, epoch uint64) {
	c.selectProperty(uprn, epoch, false)
}

// Restore is Select for a property restored from persistence at startup.
func (c *Coordinator) Restore(uprn string, epoch uint64) {
	c.selectProperty(uprn, epoch, true)
}

func (c *Coordinator) selectProperty(uprn string, epoch uint64, restoring bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uprn == "" {
		c.resetLocked()
		return
	}

	if uprn != c.state.UPRN {
		// Never keep another property's schedule on screen.
		c.state.Data = nil
		c.state.Prefill = nil
		c.state.Err = nil
	}
	c.state.UPRN = uprn
	c.state.Epoch = epoch

	if entry, hit := c.cache.Read(uprn); hit && c.state.Data == nil {
		cached := entry.Data
		c.state.Prefill = &cached
		// A cached schedule whose next collection is today is as good as a
		// fetch; anything older is only a placeholder.
		if !cached.Legacy() && entry.FreshOn(c.now()) {
			c.state.Data = &cached
		}
	}

	key := fetchKey(uprn, epoch)
	if key == c.lastKey {
		// Same selection again: only fetch when there is nothing current to
		// show. Failures wait for an explicit Refresh.
		if c.inflight || c.state.Err != nil {
			return
		}
		if c.state.Data != nil && !c.state.Data.Legacy() {
			return
		}
	}

	c.lastKey = key
	c.startLocked(uprn, false, restoring)
}

// Refresh refetches the current selection, asking the service to bypass its
// own cache. It is the only retry path after a failure.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.UPRN == "" {
		return
	}
	c.startLocked(c.state.UPRN, true, false)
}

// Clear cancels any fetch and forgets the selection.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every started fetch goroutine has returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) resetLocked() {
	c.cancelLocked()
	c.state = State{Phase: Empty}
	c.lastKey = ""
}

func (c *Coordinator) cancelLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inflight = false
}

func (c *Coordinator) startLocked(uprn string, force, restoring bool) {
	c.cancelLocked()
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.inflight = true
	c.state.Err = nil

	switch {
	case restoring:
		c.state.Phase = Restoring
	case c.state.Display() != nil:
		c.state.Phase = Prefilled
	default:
		c.state.Phase = Loading
	}

	c.wg.Add(1)
	go c.run(ctx, gen, uprn, force)
}

func (c *Coordinator) run(ctx context.Context, gen uint64, uprn string, force bool) {
	defer c.wg.Done()

	sched, err := c.svc.FetchSchedule(ctx, uprn, force)

	c.mu.Lock()
	// A cancelled or superseded fetch is not a failure: drop it untouched.
	if gen != c.gen || ctx.Err() != nil {
		c.mu.Unlock()
		c.log.Debugf("coordinator: discarding superseded fetch for %s", uprn)
		return
	}
	c.cancel()
	c.cancel = nil
	c.inflight = false

	if err != nil {
		c.log.Warnf("Failed to fetch schedule for %s: %v", uprn, err)
		c.state.Err = err
		c.state.Phase = Errored
	} else {
		c.state.Data = &sched
		c.state.Prefill = &sched
		c.state.Err = nil
		c.state.Phase = Ready
		c.cache.Write(uprn, sched)
	}
	cb := c.onSettle
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}
