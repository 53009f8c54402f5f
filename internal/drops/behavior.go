package drops

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Scenario is how a drop redistributes one batch.
type Scenario string

const (
	ScenarioNone            Scenario = ""
	ScenarioTransfer        Scenario = "transfer"
	ScenarioSplitTransfer   Scenario = "split_transfer"
	ScenarioATM             Scenario = "atm"
	ScenarioATMThenTransfer Scenario = "atm+transfer"
	ScenarioSinglePurchase  Scenario = "single_purchase"
	ScenarioSplitPurchase   Scenario = "split_purchase"
)

// Chunked reports whether the scenario sends a batch in parts.
func (s Scenario) Chunked() bool {
	switch s {
	case ScenarioSplitTransfer, ScenarioATMThenTransfer, ScenarioSplitPurchase:
		return true
	}
	return false
}

// Selector decides what a drop does with each batch and when it gives up
// after declines.
type Selector interface {
	// SampleScenario picks the batch scenario from the live balance.
	SampleScenario(balance decimal.Decimal)
	SetChunkingFlag()
	// NextIsOnline routes the next operation given how many operations the
	// batch has already made.
	NextIsOnline(batchOps int) bool
	ShouldRouteToFellowDrop() bool
	ShouldRouteToCrypto() bool
	AttemptsAfterFirstDecline(declined bool)
	DeductAttempt(declined bool)
	ShouldStop(declined bool) bool
	// Reset clears the batch decisions; full also clears the retry budget.
	Reset(full bool)

	Scenario() Scenario
	Online() bool
	Chunking() bool
	Attempts() int
}

// NewSelector returns the Selector variant for a role.
func NewSelector(role model.Role, rng *rand.Rand, cfg config.RoleConfig) Selector {
	if role == model.RolePurchaser {
		return NewPurchaser(rng, cfg)
	}
	return NewDistributor(rng, cfg)
}

// retryPolicy is the decline/retry protocol shared by both roles. The first
// declined operation draws a budget; every later decline spends one.
type retryPolicy struct {
	rng      *rand.Rand
	attempts int
	declines int
}

func (p *retryPolicy) afterDecline(declined bool, r config.IntRange) {
	if !declined {
		return
	}
	p.declines++
	if p.declines == 1 {
		p.attempts = randomRange(p.rng, r.Min, r.Max)
	}
}

// DeductAttempt spends one attempt for a declined retry.
func (p *retryPolicy) DeductAttempt(declined bool) {
	if declined && p.declines > 1 && p.attempts > 0 {
		p.attempts--
	}
}

// ShouldStop reports whether the drop gives up after this operation.
func (p *retryPolicy) ShouldStop(declined bool) bool {
	return declined && p.attempts == 0
}

// Attempts returns the remaining retry budget.
func (p *retryPolicy) Attempts() int { return p.attempts }

func (p *retryPolicy) resetBudget() {
	p.attempts = 0
	p.declines = 0
}

// batchState holds the per-batch decisions of a selector.
type batchState struct {
	scenario Scenario
	online   bool
	chunking bool
}

func (b *batchState) Scenario() Scenario { return b.scenario }
func (b *batchState) Online() bool       { return b.online }
func (b *batchState) Chunking() bool     { return b.chunking }

// SetChunkingFlag derives the chunking flag from the scenario.
func (b *batchState) SetChunkingFlag() {
	b.chunking = b.scenario.Chunked()
}

// Distributor fans money out through transfers, ATM withdrawals and crypto
// exchanges.
type Distributor struct {
	retryPolicy
	batchState

	ceiling     decimal.Decimal
	atmMin      decimal.Decimal
	splitMin    decimal.Decimal
	splitRate   float64
	fellowRate  float64
	cryptoRate  float64
	attemptsCfg config.AttemptsConfig
}

// NewDistributor creates a distributor Selector.
func NewDistributor(rng *rand.Rand, cfg config.RoleConfig) *Distributor {
	return &Distributor{
		retryPolicy: retryPolicy{rng: rng},
		ceiling:     decimal.NewFromInt(cfg.Ceiling),
		atmMin:      decimal.NewFromInt(cfg.Chunks.ATMMin),
		splitMin:    smallestChunk(cfg.Chunks.Tiers).Mul(decimal.NewFromInt(2)),
		splitRate:   cfg.SplitRate,
		fellowRate:  cfg.FellowDrops.Rate,
		cryptoRate:  cfg.CryptoRate,
		attemptsCfg: cfg.Attempts,
	}
}

// SampleScenario walks the balance ladder from the largest case down.
func (d *Distributor) SampleScenario(balance decimal.Decimal) {
	split := d.rng.Float64() <= d.splitRate

	large := balance.GreaterThan(d.ceiling)
	atmEligible := balance.GreaterThanOrEqual(d.atmMin)
	splitEligible := balance.GreaterThanOrEqual(d.splitMin)

	switch {
	case large && split:
		d.scenario = d.choose(ScenarioSplitTransfer, ScenarioATMThenTransfer)
	case large:
		d.scenario = ScenarioATM
	case atmEligible && split:
		d.scenario = d.choose(ScenarioSplitTransfer, ScenarioATMThenTransfer)
	case atmEligible:
		d.scenario = d.choose(ScenarioTransfer, ScenarioATM)
	case splitEligible && split:
		d.scenario = ScenarioSplitTransfer
	default:
		d.scenario = ScenarioTransfer
	}
}

func (d *Distributor) choose(options ...Scenario) Scenario {
	return options[d.rng.Intn(len(options))]
}

// NextIsOnline routes ATM-then-transfer offline for the batch's first
// operation only and ATM-only always offline.
func (d *Distributor) NextIsOnline(batchOps int) bool {
	switch d.scenario {
	case ScenarioATMThenTransfer:
		d.online = batchOps != 0
	case ScenarioATM:
		d.online = false
	default:
		d.online = true
	}
	return d.online
}

// ShouldRouteToFellowDrop decides whether an online transfer goes to another
// drop.
func (d *Distributor) ShouldRouteToFellowDrop() bool {
	if !d.online {
		return false
	}
	return d.rng.Float64() < d.fellowRate
}

// ShouldRouteToCrypto decides whether an online operation is a crypto
// exchange top-up.
func (d *Distributor) ShouldRouteToCrypto() bool {
	if !d.online {
		return false
	}
	return d.rng.Float64() < d.cryptoRate
}

// AttemptsAfterFirstDecline draws the retry budget on the first decline,
// from the online or offline range depending on the declined operation.
func (d *Distributor) AttemptsAfterFirstDecline(declined bool) {
	r := d.attemptsCfg.Offline
	if d.online {
		r = d.attemptsCfg.Online
	}
	d.afterDecline(declined, r)
}

// Reset clears the batch decisions, and the retry budget when full.
func (d *Distributor) Reset(full bool) {
	d.batchState = batchState{}
	if full {
		d.resetBudget()
	}
}

// Purchaser converts money into online merchandise purchases.
type Purchaser struct {
	retryPolicy
	batchState

	ceiling     decimal.Decimal
	splitMin    decimal.Decimal
	splitRate   float64
	attemptsCfg config.IntRange
}

// NewPurchaser creates a purchaser Selector.
func NewPurchaser(rng *rand.Rand, cfg config.RoleConfig) *Purchaser {
	return &Purchaser{
		retryPolicy: retryPolicy{rng: rng},
		ceiling:     decimal.NewFromInt(cfg.Ceiling),
		splitMin:    smallestChunk(cfg.Chunks.Tiers).Mul(decimal.NewFromInt(2)),
		splitRate:   cfg.SplitRate,
		attemptsCfg: cfg.Attempts.Online,
	}
}

// SampleScenario splits balances above the ceiling, and eligible balances
// with probability split_rate.
func (p *Purchaser) SampleScenario(balance decimal.Decimal) {
	split := p.rng.Float64() <= p.splitRate
	switch {
	case balance.GreaterThan(p.ceiling):
		p.scenario = ScenarioSplitPurchase
	case balance.GreaterThanOrEqual(p.splitMin) && split:
		p.scenario = ScenarioSplitPurchase
	default:
		p.scenario = ScenarioSinglePurchase
	}
}

// NextIsOnline is always true: purchases are made online.
func (p *Purchaser) NextIsOnline(int) bool {
	p.online = true
	return true
}

func (p *Purchaser) ShouldRouteToFellowDrop() bool { return false }
func (p *Purchaser) ShouldRouteToCrypto() bool     { return false }

// AttemptsAfterFirstDecline draws the retry budget on the first decline.
func (p *Purchaser) AttemptsAfterFirstDecline(declined bool) {
	p.afterDecline(declined, p.attemptsCfg)
}

// Reset clears the batch decisions, and the retry budget when full.
func (p *Purchaser) Reset(full bool) {
	p.batchState = batchState{}
	if full {
		p.resetBudget()
	}
}
