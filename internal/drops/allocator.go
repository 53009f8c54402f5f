package drops

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cleared-dev/dropsim/internal/accounts"
)

var (
	// ErrUnbound is returned when an account is requested before a drop
	// identity was bound.
	ErrUnbound = errors.New("drop identity not bound")

	// ErrExternalPoolExhausted is returned when every external account has
	// already been used by the current drop.
	ErrExternalPoolExhausted = errors.New("external account pool exhausted")
)

// Allocator hands out the accounts a drop sends money from and to.
type Allocator struct {
	rng        *rand.Rand
	table      *accounts.Table
	external   []int64
	minFellows int

	clientID int64
	bound    bool
	account  int64
	used     map[int64]bool
}

// NewAllocator creates an Allocator over the shared account table and the
// external account ids. Fellow drops are only picked while at least
// minFellows candidates exist.
func NewAllocator(rng *rand.Rand, table *accounts.Table, external []int64, minFellows int) *Allocator {
	return &Allocator{
		rng:        rng,
		table:      table,
		external:   external,
		minFellows: minFellows,
		used:       make(map[int64]bool),
	}
}

// Bind sets the client the allocator works for.
func (a *Allocator) Bind(clientID int64) {
	a.clientID = clientID
	a.bound = true
}

// OwnAccount returns the drop's own account, looking it up on first use.
func (a *Allocator) OwnAccount() (int64, error) {
	if !a.bound {
		return 0, ErrUnbound
	}
	if a.account != 0 {
		return a.account, nil
	}
	acct, ok := a.table.AccountOf(a.clientID)
	if !ok {
		return 0, fmt.Errorf("looking up account of client %d: %w", a.clientID, accounts.ErrNotFound)
	}
	a.account = acct.ID
	return a.account, nil
}

// LabelAsDrop flags the drop's account so later drops can route to it.
func (a *Allocator) LabelAsDrop() error {
	own, err := a.OwnAccount()
	if err != nil {
		return err
	}
	return a.table.Label(own)
}

// PickDestination returns an account the drop has not sent to yet. Fellow
// drops are tried first when toFellowDrop is set and enough of them are
// available; otherwise the external pool is used.
func (a *Allocator) PickDestination(toFellowDrop bool) (int64, error) {
	own, err := a.OwnAccount()
	if err != nil {
		return 0, err
	}

	if toFellowDrop {
		var fellows []int64
		for _, id := range a.table.Drops() {
			if id != own && !a.used[id] {
				fellows = append(fellows, id)
			}
		}
		if len(fellows) > 0 && len(fellows) >= a.minFellows {
			return a.take(fellows), nil
		}
	}

	var free []int64
	for _, id := range a.external {
		if !a.used[id] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return 0, fmt.Errorf("picking destination for client %d: %w", a.clientID, ErrExternalPoolExhausted)
	}
	return a.take(free), nil
}

func (a *Allocator) take(candidates []int64) int64 {
	id := candidates[a.rng.Intn(len(candidates))]
	a.used[id] = true
	return id
}

// Reset forgets the bound drop and its used destinations.
func (a *Allocator) Reset() {
	a.clientID = 0
	a.bound = false
	a.account = 0
	a.used = make(map[int64]bool)
}
