package bins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProperty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Property
		ok   bool
	}{
		{
			name: "structured record",
			raw:  `{"uprn":"1000001","address":"1 High St","postcode":"SL6 1XX"}`,
			want: Property{UPRN: "1000001", Address: "1 High St", Postcode: "SL6 1XX"},
			ok:   true,
		},
		{
			name: "numeric uprn keeps every digit",
			raw:  `{"uprn":100012345678901234,"address":null}`,
			want: Property{UPRN: "100012345678901234"},
			ok:   true,
		},
		{
			name: "alternate key spellings",
			raw:  `{"Uprn":"42","postCode":"SL6 2AB"}`,
			want: Property{UPRN: "42", Postcode: "SL6 2AB"},
			ok:   true,
		},
		{
			name: "id fallback",
			raw:  `{"id":"77"}`,
			want: Property{UPRN: "77"},
			ok:   true,
		},
		{
			name: "legacy bare digits",
			raw:  `1000001`,
			want: Property{UPRN: "1000001"},
			ok:   true,
		},
		{
			name: "legacy non json string",
			raw:  `ABC-1000001`,
			want: Property{UPRN: "ABC-1000001"},
			ok:   true,
		},
		{name: "empty", raw: "  ", ok: false},
		{name: "object without uprn", raw: `{"address":"x"}`, ok: false},
		{name: "json null", raw: `null`, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeProperty(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeSchedule(t *testing.T) {
	t.Run("current shape", func(t *testing.T) {
		s, err := DecodeSchedule([]byte(`{"uprn":1000001,"postcode":"SL6 1XX","source":"RBWM","collections":[{"date":"2026-10-19","bins":["black"," ","green"]}]}`))
		require.NoError(t, err)
		assert.False(t, s.Legacy())
		assert.Equal(t, "1000001", s.UPRN)
		require.Len(t, s.Collections, 1)
		assert.Equal(t, []string{"black", "green"}, s.Collections[0].Bins)
	})

	t.Run("upcoming shape is converted but legacy", func(t *testing.T) {
		s, err := DecodeSchedule([]byte(`{"postcode":"SL6 1XX","upcoming":[{"date":"2026-10-20","bins":["blue"]}]}`))
		require.NoError(t, err)
		assert.True(t, s.Legacy())
		next, ok := s.Next()
		require.True(t, ok)
		assert.Equal(t, "2026-10-20", next.Date)
	})

	t.Run("no collections at all", func(t *testing.T) {
		s, err := DecodeSchedule([]byte(`{"postcode":"SL6 1XX"}`))
		require.NoError(t, err)
		assert.True(t, s.Legacy())
		_, ok := s.Next()
		assert.False(t, ok)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeSchedule([]byte(`{"collections":[`))
		assert.ErrorIs(t, err, ErrMalformed)
		_, err = DecodeSchedule([]byte(`[1,2]`))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestPropertyIdentity(t *testing.T) {
	a := Property{UPRN: "1", Address: "x"}
	assert.True(t, a.Same(Property{UPRN: "1"}))
	assert.False(t, a.Same(Property{UPRN: "2"}))
	assert.False(t, Property{}.Same(Property{}))
	assert.True(t, Property{UPRN: "1", Address: "  "}.NeedsHydration())
	assert.False(t, Property{}.NeedsHydration())
}

func TestDecodeAddresses(t *testing.T) {
	got, err := DecodeAddresses([]byte(`[{"uprn":1000001,"address":"1 High St","postcode":"SL6 1XX"},{"address":"no id"},{"uprn":"1000002","address":"2 High St"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Address{
		{UPRN: "1000001", Address: "1 High St", Postcode: "SL6 1XX"},
		{UPRN: "1000002", Address: "2 High St"},
	}, got)

	got, err = DecodeAddresses([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DecodeAddresses([]byte(`{"error":"x"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}
