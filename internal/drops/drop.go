package drops

import (
	"math/rand"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/calendar"
	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/id"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Deps are the inputs shared by every drop of a run.
type Deps struct {
	Accounts *accounts.Table
	External []int64
	Calendar *calendar.Table
	Parts    PartialData
}

// Drop owns the collaborator set used to simulate one drop at a time. It is
// rebound and reset between drops instead of being rebuilt.
type Drop struct {
	Role      model.Role
	Allocator *Allocator
	Ledger    *Ledger
	Selector  Selector
	Clock     *Clock
	Factory   *Factory
	Parts     PartialData

	lifecycle *Lifecycle
}

// NewDrop builds the collaborators of a role from configuration.
func NewDrop(role model.Role, cfg *config.Config, rng *rand.Rand, deps Deps) *Drop {
	rc := *cfg.Role(role)

	alloc := NewAllocator(rng, deps.Accounts, deps.External, rc.FellowDrops.MinAccounts)
	ledger := NewLedger(rng, cfg.Inbound, rc)
	selector := NewSelector(role, rng, rc)
	clock := NewClock(rng, deps.Calendar, cfg.Time, rc.PeriodInLim, rc.PeriodOutLim)
	factory := NewFactory(role, rng, rc, clock, ledger, alloc, selector, deps.Parts, id.NewSequence(cfg.Seed, string(role)))

	batch := &BatchProcessor{role: role, ledger: ledger, selector: selector, factory: factory}
	return &Drop{
		Role:      role,
		Allocator: alloc,
		Ledger:    ledger,
		Selector:  selector,
		Clock:     clock,
		Factory:   factory,
		Parts:     deps.Parts,
		lifecycle: &Lifecycle{
			alloc:    alloc,
			ledger:   ledger,
			selector: selector,
			factory:  factory,
			batch:    batch,
		},
	}
}

// Bind points every collaborator at a client.
func (d *Drop) Bind(client model.Client) {
	d.Allocator.Bind(client.ID)
	d.Parts.Bind(client)
	d.Factory.Bind(client.ID)
}

// Run simulates the bound drop's whole lifecycle. It returns the
// transactions and the number of batches that were processed.
func (d *Drop) Run() ([]model.Transaction, int, error) {
	return d.lifecycle.Run()
}

// Reset clears every per-drop state so the next client starts fresh.
func (d *Drop) Reset() {
	d.Ledger.ResetLifetime()
	d.Selector.Reset(true)
	d.Clock.Reset()
	d.Parts.Reset()
	d.Factory.Reset(false)
	d.Allocator.Reset()
}
