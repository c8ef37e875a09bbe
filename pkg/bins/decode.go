package bins

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrMalformed = errors.New("malformed payload")

// DecodeProperty parses a persisted property record. Older deployments stored
// the bare UPRN string instead of an object; that form decodes to a property
// with no address or postcode.
func DecodeProperty(raw string) (Property, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Property{}, false
	}
	if !gjson.Valid(raw) {
		return Property{UPRN: raw}, true
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		// JSON scalars such as 100012345 or "100012345" are legacy values too.
		if v := scalarString(parsed); v != "" {
			return Property{UPRN: v}, true
		}
		return Property{}, false
	}

	uprn := firstString(parsed, "uprn", "Uprn", "id")
	if uprn == "" {
		return Property{}, false
	}
	return Property{
		UPRN:     uprn,
		Address:  firstString(parsed, "address"),
		Postcode: firstString(parsed, "postcode", "postCode"),
	}, true
}

// DecodeSchedule parses a schedule payload. A payload without a collections
// array is marked legacy; an "upcoming" array is converted when present.
func DecodeSchedule(raw []byte) (Schedule, error) {
	if !gjson.ValidBytes(raw) {
		return Schedule{}, ErrMalformed
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Schedule{}, ErrMalformed
	}

	s := Schedule{
		UPRN:        firstString(doc, "uprn"),
		Postcode:    firstString(doc, "postcode"),
		Source:      firstString(doc, "source"),
		LastUpdated: firstString(doc, "last_updated"),
		FetchedAt:   firstString(doc, "fetchedAt"),
	}

	if c := doc.Get("collections"); c.IsArray() {
		s.Collections = decodeCollections(c)
		return s, nil
	}

	s.legacy = true
	if up := doc.Get("upcoming"); up.IsArray() {
		s.Collections = decodeCollections(up)
	}
	return s, nil
}

func decodeCollections(arr gjson.Result) []Collection {
	out := make([]Collection, 0, len(arr.Array()))
	for _, item := range arr.Array() {
		c := Collection{Date: item.Get("date").String()}
		for _, b := range item.Get("bins").Array() {
			if tag := strings.TrimSpace(b.String()); tag != "" {
				c.Bins = append(c.Bins, tag)
			}
		}
		out = append(out, c)
	}
	return out
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := scalarString(doc.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		// Keep the literal so large UPRNs are not rounded through float64.
		return v.Raw
	}
	return ""
}

// DecodeAddresses parses an address lookup response. Rows without a UPRN are
// skipped; an empty array is a valid "no addresses" answer.
func DecodeAddresses(raw []byte) ([]Address, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrMalformed
	}
	doc := gjson.ParseBytes(raw)
	if doc.Type == gjson.Null {
		return []Address{}, nil
	}
	if !doc.IsArray() {
		return nil, ErrMalformed
	}
	out := make([]Address, 0, len(doc.Array()))
	for _, row := range doc.Array() {
		uprn := firstString(row, "uprn", "Uprn", "id")
		if uprn == "" {
			continue
		}
		out = append(out, Address{
			UPRN:     uprn,
			Address:  firstString(row, "address"),
			Postcode: firstString(row, "postcode", "postCode"),
		})
	}
	return out, nil
}
