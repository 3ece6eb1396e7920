package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZonedClock(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	now := c.Now()
	_, offset := now.Zone()
	assert.Equal(t, 3*60*60, offset)
}

func TestZonedClock_UnknownZone(t *testing.T) {
	_, err := New("Not/AZone")
	assert.Error(t, err)
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)
	assert.True(t, c.Now().Equal(start))

	c.Advance(time.Hour)
	assert.True(t, c.Now().Equal(start.Add(time.Hour)))

	target := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	c.Set(target)
	assert.True(t, c.Now().Equal(target))
}
