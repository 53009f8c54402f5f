// Package calendar builds the table of candidate timestamps a run places
// transactions in.
package calendar

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Stamp is one row of the timestamp table.
type Stamp struct {
	Time time.Time
	Hour int
	Unix int64
}

// Table is an ordered, evenly spaced set of timestamps.
type Table struct {
	stamps []Stamp
}

// Build returns every step-aligned timestamp in [start, end].
func Build(start, end time.Time, step time.Duration) (*Table, error) {
	if step <= 0 {
		return nil, errors.New("building calendar: step must be positive")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("building calendar: end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	n := int(end.Sub(start)/step) + 1
	stamps := make([]Stamp, 0, n)
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		stamps = append(stamps, Stamp{Time: ts, Hour: ts.Hour(), Unix: ts.Unix()})
	}
	return &Table{stamps: stamps}, nil
}

// Len returns the number of timestamps.
func (t *Table) Len() int {
	return len(t.stamps)
}

// At returns the i-th timestamp.
func (t *Table) At(i int) Stamp {
	return t.stamps[i]
}

// First returns the earliest timestamp.
func (t *Table) First() Stamp {
	return t.stamps[0]
}

// Last returns the latest timestamp.
func (t *Table) Last() Stamp {
	return t.stamps[len(t.stamps)-1]
}

// Sample draws a timestamp uniformly from the table.
func (t *Table) Sample(rng *rand.Rand) Stamp {
	return t.stamps[rng.Intn(len(t.stamps))]
}

// FromUnix converts unix seconds to the UTC time used across the table.
func FromUnix(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}
