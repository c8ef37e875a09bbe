package postcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPretty(t *testing.T) {
	tests := map[string]string{
		"sl61xx":     "SL6 1XX",
		" sl6  1xx ": "SL6 1XX",
		"SL6\t1XX":   "SL6 1XX",
		"W1A0AX":     "W1A 0AX",
		"ab":         "AB",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Pretty(in), "input %q", in)
	}
}

func TestValid(t *testing.T) {
	for _, ok := range []string{"SL6 1XX", "sl61xx", "W1A 0AX", "EC1A 1BB", "M1 1AE", "B33 8TH"} {
		assert.True(t, Valid(ok), ok)
	}
	for _, bad := range []string{"", "SL6", "12345", "SL6 1CX", "QVX 1AB", "SL6 1XXX"} {
		assert.False(t, Valid(bad), bad)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("sl6 1xx")
	assert.NoError(t, err)
	assert.Equal(t, "SL6 1XX", got)

	_, err = Parse("nope")
	assert.ErrorIs(t, err, ErrInvalid)
}
