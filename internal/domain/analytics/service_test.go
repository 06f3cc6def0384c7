package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, r.From)
	assert.Nil(t, r.To)

	r, err = ParseDateRange("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *r.From)
	assert.Equal(t, 31, r.To.Day())
	assert.Equal(t, 23, r.To.Hour())

	r, err = ParseDateRange("2026-03-05", "2026-03-05")
	require.NoError(t, err)
	assert.True(t, r.To.After(*r.From))
}

func TestParseDateRange_Rejects(t *testing.T) {
	for _, tc := range [][2]string{
		{"01/02/2026", ""},
		{"", "yesterday"},
		{"2026-02-01", "2026-01-31"},
	} {
		_, err := ParseDateRange(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidDateRange, "from=%q to=%q", tc[0], tc[1])
	}
}

func TestStartOfToday(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	s := &Service{now: func() time.Time { return time.Date(2026, 10, 19, 15, 42, 7, 0, loc) }}

	start := s.startOfToday()
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, loc), start)
}
