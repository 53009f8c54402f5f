package drops

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/calendar"
	"github.com/cleared-dev/dropsim/internal/config"
)

func newTestClock(t *testing.T, tc config.TimeConfig, periodIn, periodOut int) (*Clock, *calendar.Table) {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cal, err := calendar.Build(start, start.AddDate(0, 0, 7), time.Minute)
	require.NoError(t, err)
	return NewClock(rand.New(rand.NewSource(1)), cal, tc, periodIn, periodOut), cal
}

func TestClock_FirstInboundFromCalendar(t *testing.T) {
	c, cal := newTestClock(t, config.Default().Time, 2, 3)

	ts, unix := c.NextTimestamp(true, 0)
	assert.Equal(t, ts.Unix(), unix)
	assert.GreaterOrEqual(t, unix, cal.First().Unix)
	assert.LessOrEqual(t, unix, cal.Last().Unix)

	in, out := c.PeriodCounts()
	assert.Equal(t, 1, in)
	assert.Equal(t, 0, out)
}

func TestClock_GapsWithinPeriod(t *testing.T) {
	tc := config.Default().Time
	c, _ := newTestClock(t, tc, 5, 5)

	_, prev := c.NextTimestamp(true, 0)
	for i := 0; i < 4; i++ {
		_, unix := c.NextTimestamp(false, 1)
		gap := unix - prev
		assert.GreaterOrEqual(t, gap, int64(tc.Gap.Min.Seconds()))
		assert.LessOrEqual(t, gap, int64(tc.Gap.Max.Seconds()))
		prev = unix
	}
	in, out := c.PeriodCounts()
	assert.Equal(t, 1, in)
	assert.Equal(t, 4, out)
}

func TestClock_PauseAfterOutboundCap(t *testing.T) {
	tc := config.Default().Time
	c, _ := newTestClock(t, tc, 5, 2)

	_, start := c.NextTimestamp(true, 0)
	c.NextTimestamp(false, 1)
	c.NextTimestamp(false, 1)

	_, unix := c.NextTimestamp(false, 1)
	pause := int64(tc.Pause.Seconds())
	assert.GreaterOrEqual(t, unix, start+pause+int64(tc.PauseJitter.Min.Seconds()))
	assert.LessOrEqual(t, unix, start+pause+int64(tc.PauseJitter.Max.Seconds()))

	in, out := c.PeriodCounts()
	assert.Equal(t, 0, in)
	assert.Equal(t, 1, out, "outbound opens the new period")
}

func TestClock_PauseAfterInboundCap(t *testing.T) {
	c, _ := newTestClock(t, config.Default().Time, 1, 5)

	c.NextTimestamp(true, 0)
	c.NextTimestamp(true, 1)

	in, out := c.PeriodCounts()
	assert.Equal(t, 1, in)
	assert.Equal(t, 0, out)
}

func TestClock_RestartStaysAfterLast(t *testing.T) {
	tc := config.TimeConfig{
		Pause:       time.Minute,
		PauseJitter: config.DurationRange{Min: -time.Hour, Max: -time.Hour},
		Gap:         config.DurationRange{Min: 10 * time.Minute, Max: 10 * time.Minute},
	}
	c, _ := newTestClock(t, tc, 5, 2)

	c.NextTimestamp(true, 0)
	c.NextTimestamp(false, 1)
	_, last := c.NextTimestamp(false, 1)
	_, unix := c.NextTimestamp(false, 1)
	assert.Greater(t, unix, last)
}

func TestClock_StrictlyIncreasing(t *testing.T) {
	c, _ := newTestClock(t, config.Default().Time, 2, 6)
	rng := rand.New(rand.NewSource(2))

	_, prev := c.NextTimestamp(true, 0)
	lifetimeIn := 1
	for i := 0; i < 200; i++ {
		inbound := rng.Intn(4) == 0
		_, unix := c.NextTimestamp(inbound, lifetimeIn)
		if inbound {
			lifetimeIn++
		}
		assert.Greater(t, unix, prev)
		prev = unix
	}
}

func TestClock_Reset(t *testing.T) {
	c, _ := newTestClock(t, config.Default().Time, 2, 6)
	c.NextTimestamp(true, 0)
	c.NextTimestamp(false, 1)
	c.Reset()

	in, out := c.PeriodCounts()
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, c.start)
	assert.Zero(t, c.last)
}
