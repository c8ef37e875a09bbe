// Package devserver is a deterministic stand-in for the Bindicator backend,
// used for local runs and by tests.
package devserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
)

// Logger is satisfied by logrus and the stdlib logger.
type Logger interface {
	Printf(format string, args ...interface{})
}

type Server struct {
	mu sync.Mutex

	addresses map[string][]bins.Address
	schedules map[string]func(now time.Time) bins.Schedule
	failures  map[string]int

	// Delay is applied to every schedule response.
	Delay time.Duration
	Now   func() time.Time
	Log   Logger

	hits map[string]int
}

func New() *Server {
	s := &Server{
		addresses: map[string][]bins.Address{},
		schedules: map[string]func(time.Time) bins.Schedule{},
		failures:  map[string]int{},
		hits:      map[string]int{},
		Now:       time.Now,
	}
	s.seed()
	return s
}

// SetAddresses replaces the lookup result for a pretty-printed postcode.
func (s *Server) SetAddresses(postcode string, addrs []bins.Address) {
	s.mu.Lock()
	s.addresses[postcode] = addrs
	s.mu.Unlock()
}

// SetSchedule pins the schedule returned for uprn.
func (s *Server) SetSchedule(uprn string, sched bins.Schedule) {
	s.mu.Lock()
	s.schedules[uprn] = func(time.Time) bins.Schedule { return sched }
	s.mu.Unlock()
}

// FailWith makes requests for key (a postcode or UPRN) answer with status.
// A zero status removes the failure.
func (s *Server) FailWith(key string, status int) {
	s.mu.Lock()
	if status == 0 {
		delete(s.failures, key)
	} else {
		s.failures[key] = status
	}
	s.mu.Unlock()
}

// Hits returns how many requests reached path ("/api/bins?uprn=1" style keys).
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/addresses", s.handleAddresses)
	mux.HandleFunc("GET /api/bins", s.handleBins)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	return mux
}

func (s *Server) Start(addr string) error {
	if s.Log != nil {
		s.Log.Printf("Starting dev backend on %s", addr)
	}
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) seed() {
	s.addresses["SL6 1XX"] = []bins.Address{
		{UPRN: "1000001", Address: "1 High Street, Maidenhead", Postcode: "SL6 1XX"},
	}
	s.addresses["SL6 2AB"] = []bins.Address{
		{UPRN: "1000002", Address: "2 Bridge Road, Maidenhead", Postcode: "SL6 2AB"},
		{UPRN: "1000003", Address: "3 Bridge Road, Maidenhead", Postcode: "SL6 2AB"},
		{UPRN: "1000009", Address: "Flats 1-9, Bridge Court, Maidenhead", Postcode: "SL6 2AB"},
	}
	s.addresses["SL6 9ZZ"] = []bins.Address{}

	s.schedules["1000001"] = weekly("1000001", "SL6 1XX", 0)
	s.schedules["1000002"] = weekly("1000002", "SL6 2AB", 1)
	s.schedules["1000003"] = weekly("1000003", "SL6 2AB", 2)
	s.failures["1000009"] = http.StatusPreconditionRequired
}

// weekly alternates general waste with recycling, starting offset days from
// today, and always includes garden waste on recycling weeks.
func weekly(uprn, postcode string, offset int) func(time.Time) bins.Schedule {
	return func(now time.Time) bins.Schedule {
		start := now.UTC().AddDate(0, 0, offset)
		var cols []bins.Collection
		for i := 0; i < 4; i++ {
			c := bins.Collection{Date: start.AddDate(0, 0, 7*i).Format("2006-01-02")}
			if i%2 == 0 {
				c.Bins = []string{"black"}
			} else {
				c.Bins = []string{"blue", "green"}
			}
			cols = append(cols, c)
		}
		return bins.Schedule{
			UPRN:        uprn,
			Postcode:    postcode,
			Collections: cols,
			Source:      "dev",
			LastUpdated: now.UTC().Format(time.RFC3339),
			FetchedAt:   now.UTC().Format(time.RFC3339),
		}
	}
}

func (s *Server) hit(key string) {
	s.mu.Lock()
	s.hits[key]++
	s.mu.Unlock()
}

func (s *Server) failure(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.failures[key]
	return status, ok
}

func hitKey(path, param, value string) string {
	return fmt.Sprintf("%s?%s=%s", path, param, value)
}
