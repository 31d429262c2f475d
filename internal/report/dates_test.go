package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	rng, err := ParseRange("2024-01-01", "2024-01-31", santiago)
	require.NoError(t, err)

	assert.True(t, rng.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, santiago)))
	assert.True(t, rng.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, santiago)))
	assert.False(t, rng.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, santiago)))

	_, err = ParseRange("2024-02-01", "2024-01-01", santiago)
	assert.Error(t, err)

	_, err = ParseRange("01/02/2024", "2024-01-01", santiago)
	assert.Error(t, err)
}

func TestPreset(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, santiago)

	cases := []struct {
		name     string
		from, to string
	}{
		{"hoy", "2024-03-15", "2024-03-15"},
		{"ayer", "2024-03-14", "2024-03-14"},
		{"semana", "2024-03-09", "2024-03-15"},
		{"mes", "2024-03-01", "2024-03-15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng, err := Preset(tc.name, now, santiago)
			require.NoError(t, err)
			assert.Equal(t, tc.from, rng.From.Format(dayLayout))
			assert.Equal(t, tc.to, rng.To.Format(dayLayout))
		})
	}

	_, err := Preset("trimestre", now, santiago)
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestPreset_UsesLocationDay(t *testing.T) {
	// 01:00 UTC on the 1st is still the last day of February in Santiago.
	now := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	rng, err := Preset("hoy", now, santiago)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", rng.From.Format(dayLayout))
}
