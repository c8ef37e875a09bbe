package bins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterAddresses(t *testing.T) {
	addrs := []Address{
		{UPRN: "1", Address: "1 Bridge Road"},
		{UPRN: "2", Address: "2 Bridge Road"},
		{UPRN: "3", Address: "Flat 3, Bridge Court"},
	}

	assert.Len(t, FilterAddresses(addrs, ""), 3)
	assert.Len(t, FilterAddresses(addrs, "  "), 3)
	assert.Equal(t, []Address{addrs[2]}, FilterAddresses(addrs, " court"))
	assert.Len(t, FilterAddresses(addrs, "ROAD"), 2)
	assert.Empty(t, FilterAddresses(addrs, "lane"))
}

func TestScheduleHelpers(t *testing.T) {
	var none *Schedule
	_, ok := none.Next()
	assert.False(t, ok)
	assert.Empty(t, none.UpdatedAt())

	s := &Schedule{
		Collections: []Collection{{Date: "2026-10-19", Bins: []string{"black"}}},
		FetchedAt:   "2026-10-19T07:00:00Z",
	}
	next, ok := s.Next()
	assert.True(t, ok)
	assert.Equal(t, "2026-10-19", next.Date)
	assert.Equal(t, "2026-10-19T07:00:00Z", s.UpdatedAt())
	s.LastUpdated = "2026-10-18T20:00:00Z"
	assert.Equal(t, "2026-10-18T20:00:00Z", s.UpdatedAt())
}
