package drops

import (
	"math/rand"
	"time"

	"github.com/cleared-dev/dropsim/internal/calendar"
	"github.com/cleared-dev/dropsim/internal/config"
)

// Clock places a drop's transactions in time. Activity comes in periods;
// once a period holds period_in_lim inbound or period_out_lim outbound
// transactions, the next one starts a new period after a pause.
type Clock struct {
	rng       *rand.Rand
	calendar  *calendar.Table
	cfg       config.TimeConfig
	periodIn  int
	periodOut int

	start    int64
	last     int64
	inCount  int
	outCount int
}

// NewClock creates a Clock drawing first timestamps from cal.
func NewClock(rng *rand.Rand, cal *calendar.Table, cfg config.TimeConfig, periodIn, periodOut int) *Clock {
	return &Clock{
		rng:       rng,
		calendar:  cal,
		cfg:       cfg,
		periodIn:  periodIn,
		periodOut: periodOut,
	}
}

// NextTimestamp returns the time of the next transaction. lifetimeInbound is
// the number of inbound transactions the drop made before this one.
func (c *Clock) NextTimestamp(isInbound bool, lifetimeInbound int) (time.Time, int64) {
	switch {
	case isInbound && lifetimeInbound == 0:
		s := c.calendar.Sample(c.rng)
		c.start, c.last = s.Unix, s.Unix
		c.inCount, c.outCount = 1, 0

	case c.inCount >= c.periodIn || c.outCount >= c.periodOut:
		next := c.start + int64(c.cfg.Pause.Seconds()) + uniformSeconds(c.rng, c.cfg.PauseJitter)
		if next <= c.last {
			next = c.last + 1
		}
		c.start, c.last = next, next
		if isInbound {
			c.inCount, c.outCount = 1, 0
		} else {
			c.inCount, c.outCount = 0, 1
		}

	default:
		c.last += max(uniformSeconds(c.rng, c.cfg.Gap), 1)
		if isInbound {
			c.inCount++
		} else {
			c.outCount++
		}
	}
	return calendar.FromUnix(c.last), c.last
}

// PeriodCounts returns the in-period inbound and outbound counters.
func (c *Clock) PeriodCounts() (int, int) { return c.inCount, c.outCount }

// Reset clears all clock state.
func (c *Clock) Reset() {
	c.start, c.last = 0, 0
	c.inCount, c.outCount = 0, 0
}
