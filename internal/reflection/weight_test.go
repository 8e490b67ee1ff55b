package reflection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeightBands(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	days := func(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

	assert.Equal(t, 1.0, Weight(now, now))
	assert.Equal(t, 1.0, Weight(days(1), now))
	assert.Equal(t, 1.0, Weight(days(7), now), "exactly 7 days keeps full weight")
	assert.Equal(t, 0.5, Weight(days(8), now))
	assert.Equal(t, 0.5, Weight(days(14), now), "exactly 14 days keeps half weight")
	assert.Equal(t, 0.25, Weight(days(15), now))
	assert.Equal(t, 0.25, Weight(days(90), now))
}

func TestWeightSubDayBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	justOver := now.Add(-7*24*time.Hour - time.Second)
	assert.Equal(t, 0.5, Weight(justOver, now))
}
