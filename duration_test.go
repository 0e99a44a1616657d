package jevent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatISO8601Duration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "P0D"},
		{-time.Hour, "P0D"},
		{time.Hour, "PT1H"},
		{90 * time.Minute, "PT1H30M"},
		{24 * time.Hour, "P1D"},
		{25*time.Hour + 30*time.Minute, "P1DT1H30M"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatISO8601Duration(c.in))
	}
}

func TestParseISO8601DurationRoundTrip(t *testing.T) {
	d, err := ParseISO8601Duration("PT1H30M")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = ParseISO8601Duration("P1DT2H")
	assert.NoError(t, err)
	assert.Equal(t, 26*time.Hour, d)

	d, err = ParseISO8601Duration("-PT30M")
	assert.NoError(t, err)
	assert.Equal(t, -30*time.Minute, d)
}

func TestParseISO8601DurationRejectsMalformed(t *testing.T) {
	_, err := ParseISO8601Duration("")
	assert.Error(t, err)

	_, err = ParseISO8601Duration("1H")
	assert.Error(t, err)
}
