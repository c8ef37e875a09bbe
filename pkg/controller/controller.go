// Package controller owns the selection workflow: restoring the last
// property at startup, postcode search, address selection, the default
// property and the session mirror that follows it.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/coordinator"
	"github.com/bindicator/bindicator/pkg/hydrator"
	"github.com/bindicator/bindicator/pkg/memory"
	"github.com/bindicator/bindicator/pkg/postcode"
	"github.com/bindicator/bindicator/pkg/resultcache"
)

// ErrNoAddresses is returned by SubmitPostcode when a valid postcode has no
// registered properties.
var ErrNoAddresses = errors.New("no addresses found for that postcode")

const DefaultSlowNoticeAfter = 15 * time.Second

const SlowNotice = "Our servers are waking up (we use free cloud resources). This can take up to a minute, thanks for your patience!"

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

type Config struct {
	Lookup   api.AddressLookup
	Service  api.ScheduleService
	Identity *memory.Identity
	Session  *memory.Session
	Cache    *resultcache.Cache

	Now             func() time.Time // defaults to time.Now
	SlowNoticeAfter time.Duration    // defaults to DefaultSlowNoticeAfter
	Log             Logger           // optional; nil = no logging
}

type Controller struct {
	lookup   api.AddressLookup
	identity *memory.Identity
	session  *memory.Session
	coord    *coordinator.Coordinator
	hydr     *hydrator.Hydrator
	log      Logger

	slowAfter time.Duration

	mu        sync.Mutex
	selected  bins.Property
	postcode  string
	addresses []bins.Address
	def       bins.Property
	epoch     uint64

	lookupGen uint64
	lookingUp bool
	lookupErr error

	needsHydration bool
	hydrateCancel  context.CancelFunc
	hwg            sync.WaitGroup

	slowTimer *time.Timer
	slowGen   uint64
	slow      bool

	onChange func()
}

func New(cfg Config) *Controller {
	c := &Controller{
		lookup:    cfg.Lookup,
		identity:  cfg.Identity,
		session:   cfg.Session,
		log:       cfg.Log,
		slowAfter: cfg.SlowNoticeAfter,
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.slowAfter <= 0 {
		c.slowAfter = DefaultSlowNoticeAfter
	}
	c.coord = coordinator.New(coordinator.Config{
		Service:  cfg.Service,
		Cache:    cfg.Cache,
		Now:      cfg.Now,
		Log:      c.log,
		OnSettle: c.settled,
	})
	// Hydrated defaults are written back under c.mu, not by the hydrator.
	c.hydr = hydrator.New(cfg.Lookup, nil, c.log)
	return c
}

// OnChange registers fn to be called after every state change. fn runs
// without any controller lock held and may call View.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Start restores the saved default, or failing that the last session, and
// selects it. The cached schedule for it is available from View as soon as
// Start returns; the authoritative fetch runs in the background.
func (c *Controller) Start() (bins.Property, bool) {
	c.mu.Lock()
	def, hasDef := c.identity.Read()
	if hasDef {
		c.def = def
	}
	initial := def
	if !hasDef {
		var ok bool
		if initial, ok = c.session.Read(); !ok {
			c.mu.Unlock()
			return bins.Property{}, false
		}
	}
	c.log.Debugf("controller: restoring %s (default=%t)", initial.UPRN, hasDef)

	c.selected = initial
	c.postcode = initial.Postcode
	c.needsHydration = initial.NeedsHydration()
	c.epoch++
	c.coord.Restore(initial.UPRN, c.epoch)
	c.afterChangeLocked()
	c.mu.Unlock()

	c.notify()
	return initial, true
}

// SubmitPostcode looks up the properties registered under input. Input that
// is not a postcode only records the error; otherwise the current selection
// is dropped first. A postcode with exactly one property selects it straight
// away.
func (c *Controller) SubmitPostcode(ctx context.Context, input string) ([]bins.Address, error) {
	c.mu.Lock()
	pc, err := postcode.Parse(input)
	if err != nil {
		c.lookupErr = err
		c.mu.Unlock()
		c.notify()
		return nil, err
	}

	c.dropSelectionLocked()
	c.addresses = nil
	c.lookupErr = nil
	c.lookupGen++
	gen := c.lookupGen
	c.postcode = pc
	c.epoch++
	c.lookingUp = true
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()

	addrs, err := c.lookup.LookupAddresses(ctx, pc)

	c.mu.Lock()
	if gen != c.lookupGen {
		// Superseded by another search or a postcode change.
		c.mu.Unlock()
		return addrs, err
	}
	c.lookingUp = false
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		c.log.Warnf("Address lookup for %s failed: %v", pc, err)
		c.lookupErr = err
	case len(addrs) == 0:
		err = ErrNoAddresses
		c.lookupErr = err
	default:
		c.addresses = addrs
		if len(addrs) == 1 {
			c.selectLocked(addrs[0].Property())
		}
	}
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()

	return addrs, err
}

// SelectAddress makes p the selected property. A property without address
// text is hydrated once a schedule carrying its postcode is available.
func (c *Controller) SelectAddress(p bins.Property) {
	if p.UPRN == "" {
		return
	}
	c.mu.Lock()
	c.selectLocked(p)
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// ChangePostcode forgets the selection and the last search, ready for a new
// postcode.
func (c *Controller) ChangePostcode() {
	c.mu.Lock()
	c.dropSelectionLocked()
	c.postcode = ""
	c.addresses = nil
	c.lookupErr = nil
	c.lookupGen++
	c.lookingUp = false
	c.epoch++
	c.session.Clear()
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// SetDefault saves the selected property as the default. It reports false
// when nothing is selected.
func (c *Controller) SetDefault() (bins.Property, bool) {
	c.mu.Lock()
	if c.selected.UPRN == "" {
		c.mu.Unlock()
		return bins.Property{}, false
	}
	p := c.selected
	p.Postcode = c.bestPostcodeLocked()
	saved, ok := c.identity.Write(p)
	if ok {
		c.def = saved
	}
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
	return saved, ok
}

// UnsetDefault forgets the default property and the session that mirrors it.
// Calling it with no default set is a no-op beyond clearing both records.
func (c *Controller) UnsetDefault() {
	c.mu.Lock()
	c.identity.Clear()
	c.def = bins.Property{}
	c.session.Clear()
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// Refresh refetches the selected property's schedule, bypassing the
// service's cache. It is the only way to retry after a failure.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.coord.Refresh()
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

// Wait blocks until outstanding schedule fetches and hydrations finish.
func (c *Controller) Wait() {
	c.coord.Wait()
	c.hwg.Wait()
}

// Close cancels background work and stops the slow-network timer.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelHydrationLocked()
	c.coord.Clear()
	c.lookupGen++
	c.lookingUp = false
	c.stopSlowLocked()
	c.mu.Unlock()
	c.Wait()
}

// View is a snapshot of what the user should see.
type View struct {
	Property  bins.Property
	Postcode  string
	Addresses []bins.Address

	Default   bins.Property
	IsDefault bool

	Phase    coordinator.Phase
	Schedule *bins.Schedule
	// Current is false while Schedule is only cached placeholder data.
	Current bool

	Loading   bool
	LookingUp bool

	Error        string
	AddressError string
	Notice       string
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.coord.State()
	v := View{
		Property:     c.selected,
		Postcode:     c.postcode,
		Addresses:    append([]bins.Address(nil), c.addresses...),
		Default:      c.def,
		IsDefault:    c.def.Same(c.selected),
		Phase:        st.Phase,
		Schedule:     st.Display(),
		Current:      st.Data != nil,
		Loading:      st.Loading(),
		LookingUp:    c.lookingUp,
		Error:        FriendlyError(st.Err),
		AddressError: FriendlyError(c.lookupErr),
	}
	if c.slow && st.Data == nil {
		v.Notice = SlowNotice
	}
	return v
}

func (c *Controller) selectLocked(p bins.Property) {
	if !c.selected.Same(p) {
		c.cancelHydrationLocked()
	}
	c.selected = p
	if p.Postcode != "" {
		c.postcode = p.Postcode
	}
	c.needsHydration = p.NeedsHydration()
	c.epoch++
	c.coord.Select(p.UPRN, c.epoch)
}

func (c *Controller) dropSelectionLocked() {
	c.cancelHydrationLocked()
	c.coord.Clear()
	c.selected = bins.Property{}
	c.needsHydration = false
}

// afterChangeLocked brings the derived state in line after any change to
// the selection, the default or the fetch state.
func (c *Controller) afterChangeLocked() {
	c.syncSessionLocked()
	c.maybeHydrateLocked()
	c.updateSlowLocked()
}

// settled is the coordinator's OnSettle hook.
func (c *Controller) settled() {
	c.mu.Lock()
	c.afterChangeLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// syncSessionLocked mirrors the selection into the session record while it
// is the default property, and clears the record otherwise.
func (c *Controller) syncSessionLocked() {
	if c.selected.UPRN == "" || !c.def.Same(c.selected) {
		c.session.Clear()
		return
	}
	p := c.selected
	p.Postcode = c.bestPostcodeLocked()
	c.session.Write(p)
}

// bestPostcodeLocked prefers the postcode reported by the schedule service
// over the one typed by the user.
func (c *Controller) bestPostcodeLocked() string {
	if d := c.coord.State().Data; d != nil && d.Postcode != "" {
		return d.Postcode
	}
	if c.postcode != "" {
		return c.postcode
	}
	return c.selected.Postcode
}

func (c *Controller) maybeHydrateLocked() {
	if !c.needsHydration || c.hydrateCancel != nil || c.selected.UPRN == "" {
		return
	}
	sched := c.coord.State().Display()
	if sched == nil || sched.Postcode == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.hydrateCancel = cancel
	p, pc := c.selected, sched.Postcode

	c.hwg.Add(1)
	go func() {
		defer c.hwg.Done()
		hydrated, ok := c.hydr.Hydrate(ctx, p, pc)

		c.mu.Lock()
		if ctx.Err() != nil {
			// The selection moved on; its own hydration decides the flag.
			c.mu.Unlock()
			return
		}
		cancel()
		c.hydrateCancel = nil
		c.needsHydration = false
		if ok && c.selected.Same(hydrated) {
			c.selected.Address = hydrated.Address
			if c.selected.Postcode == "" {
				c.selected.Postcode = hydrated.Postcode
			}
			if c.def.Same(hydrated) {
				if saved, ok := c.identity.Write(hydrated); ok {
					c.def = saved
				}
			}
			c.syncSessionLocked()
		}
		c.mu.Unlock()
		c.notify()
	}()
}

func (c *Controller) cancelHydrationLocked() {
	if c.hydrateCancel != nil {
		c.hydrateCancel()
		c.hydrateCancel = nil
	}
}

func (c *Controller) updateSlowLocked() {
	if !c.lookingUp && !c.coord.State().Loading() {
		c.stopSlowLocked()
		return
	}
	if c.slowTimer != nil {
		return
	}
	c.slowGen++
	gen := c.slowGen
	c.slowTimer = time.AfterFunc(c.slowAfter, func() {
		c.mu.Lock()
		if gen != c.slowGen {
			c.mu.Unlock()
			return
		}
		c.slow = true
		c.mu.Unlock()
		c.notify()
	})
}

func (c *Controller) stopSlowLocked() {
	if c.slowTimer != nil {
		c.slowTimer.Stop()
		c.slowTimer = nil
	}
	c.slowGen++
	c.slow = false
}
