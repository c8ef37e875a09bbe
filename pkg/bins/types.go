package bins

import "strings"

// Property is a collection point identified by its UPRN. Address and Postcode
// may be unknown; an empty Address means the text still has to be hydrated.
type Property struct {
	UPRN     string `json:"uprn"`
	Address  string `json:"address"`
	Postcode string `json:"postcode"`
}

// IsZero reports whether no property is selected.
func (p Property) IsZero() bool { return p.UPRN == "" }

// Same reports whether both records point at the same physical property.
func (p Property) Same(other Property) bool {
	return p.UPRN != "" && p.UPRN == other.UPRN
}

// NeedsHydration is true when the property is known by UPRN only.
func (p Property) NeedsHydration() bool {
	return p.UPRN != "" && strings.TrimSpace(p.Address) == ""
}

// Address is one row returned by the address lookup service.
type Address struct {
	UPRN     string `json:"uprn"`
	Address  string `json:"address"`
	Postcode string `json:"postcode"`
}

func (a Address) Property() Property {
	return Property{UPRN: a.UPRN, Address: a.Address, Postcode: a.Postcode}
}

// Collection is a single collection day and the bins that go out on it.
type Collection struct {
	Date string   `json:"date"`
	Bins []string `json:"bins"`
}

// Schedule is the schedule service response for one property.
type Schedule struct {
	UPRN        string       `json:"uprn,omitempty"`
	Postcode    string       `json:"postcode"`
	Collections []Collection `json:"collections"`
	Source      string       `json:"source,omitempty"`
	LastUpdated string       `json:"last_updated,omitempty"`
	FetchedAt   string       `json:"fetchedAt,omitempty"`

	legacy bool
}

// Legacy reports whether the schedule was decoded from a payload without a
// collections array. Legacy schedules are displayable but must be refetched.
func (s *Schedule) Legacy() bool { return s != nil && s.legacy }

// Next returns the first upcoming collection.
func (s *Schedule) Next() (Collection, bool) {
	if s == nil || len(s.Collections) == 0 {
		return Collection{}, false
	}
	return s.Collections[0], true
}

// UpdatedAt is the best timestamp to show as "last updated".
func (s *Schedule) UpdatedAt() string {
	if s == nil {
		return ""
	}
	if s.LastUpdated != "" {
		return s.LastUpdated
	}
	return s.FetchedAt
}

// FilterAddresses keeps the addresses whose text contains query, ignoring
// case. A blank query keeps everything.
func FilterAddresses(addrs []Address, query string) []Address {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return addrs
	}
	var out []Address
	for _, a := range addrs {
		if strings.Contains(strings.ToLower(a.Address), q) {
			out = append(out, a)
		}
	}
	return out
}
