package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bindicator/bindicator/pkg/bins"
	"github.com/bindicator/bindicator/pkg/postcode"
)

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int) {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, "<html><head><title>%d %s</title></head><body></body></html>", status, http.StatusText(status))
	case http.StatusPreconditionRequired:
		writeJSON(w, status, errorBody{Error: "House number required"})
	default:
		writeJSON(w, status, errorBody{Error: http.StatusText(status), Hint: "Try again later"})
	}
}

func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	pc := postcode.Pretty(r.URL.Query().Get("postcode"))
	s.hit(hitKey("/api/addresses", "postcode", pc))

	if status, ok := s.failure(pc); ok {
		writeFailure(w, status)
		return
	}
	if !postcode.Valid(pc) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid postcode", Hint: "Use a UK postcode such as SL6 1XX"})
		return
	}

	s.mu.Lock()
	addrs, ok := s.addresses[pc]
	s.mu.Unlock()
	if !ok {
		addrs = []bins.Address{}
	}
	writeJSON(w, http.StatusOK, addrs)
}

func (s *Server) handleBins(w http.ResponseWriter, r *http.Request) {
	uprn := r.URL.Query().Get("uprn")
	s.hit(hitKey("/api/bins", "uprn", uprn))

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if status, ok := s.failure(uprn); ok {
		writeFailure(w, status)
		return
	}

	s.mu.Lock()
	gen, ok := s.schedules[uprn]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Property not found", Hint: "Please enter another address"})
		return
	}
	writeJSON(w, http.StatusOK, gen(s.Now()))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     "Bindicator API",
		"version":     "dev",
		"build":       "local",
		"environment": "development",
	})
}
