package drops

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/config"
)

// Ledger tracks a drop's balance and sizes every amount it moves.
type Ledger struct {
	rng         *rand.Rand
	inbound     config.InboundConfig
	chunks      config.ChunksConfig
	round       decimal.Decimal
	randRate    float64
	reduceShare decimal.Decimal

	balance decimal.Decimal

	// per batch
	batchOps int
	chunk    decimal.Decimal

	// per lifetime
	declinedCount int
	lastAmount    decimal.Decimal
	firstDeclined decimal.Decimal
}

// NewLedger creates an empty Ledger for a role.
func NewLedger(rng *rand.Rand, inbound config.InboundConfig, role config.RoleConfig) *Ledger {
	return &Ledger{
		rng:         rng,
		inbound:     inbound,
		chunks:      role.Chunks,
		round:       decimal.NewFromInt(role.Round),
		randRate:    role.RandRate,
		reduceShare: decimal.NewFromFloat(role.ReduceShare),
	}
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal { return l.balance }

// BatchOps returns the number of outbound operations in the current batch.
func (l *Ledger) BatchOps() int { return l.batchOps }

// DeclinedCount returns the number of declined outbound operations this
// lifetime.
func (l *Ledger) DeclinedCount() int { return l.declinedCount }

// Receive draws an inbound amount and credits it unless declined.
func (l *Ledger) Receive(declined bool) decimal.Decimal {
	in := l.inbound
	x := truncNormal(l.rng, in.Low, in.High, in.Mean, in.Std)
	step := float64(max(in.Round, 1))
	amount := decimal.NewFromFloat(math.Floor(x/step) * step)
	if !declined {
		l.balance = l.balance.Add(amount)
	}
	return amount
}

// ChunkSize returns the size of the next partial amount. After the first
// operation of a batch the previous size is kept with probability
// 1 - rand_rate.
func (l *Ledger) ChunkSize(online bool) decimal.Decimal {
	if l.batchOps != 0 && l.chunk.IsPositive() && l.rng.Float64() > l.randRate {
		return l.chunk
	}
	if online {
		l.chunk = l.transferChunk()
	} else {
		l.chunk = l.atmChunk()
	}
	return l.chunk
}

func (l *Ledger) atmChunk() decimal.Decimal {
	atmMin := decimal.NewFromInt(l.chunks.ATMMin)
	if l.balance.LessThan(atmMin) {
		return l.balance
	}
	share := decimal.NewFromFloat(uniformFloat(l.rng, l.chunks.ATMShare))
	return decimal.Max(atmMin, floorTo(l.balance.Mul(share), l.round))
}

func (l *Ledger) transferChunk() decimal.Decimal {
	tier := l.tier()
	lo := decimal.Min(decimal.NewFromInt(tier.Min), l.balance)
	hi := decimal.Min(decimal.NewFromInt(tier.Max), l.balance)
	step := l.round
	if tier.Step > 0 {
		step = decimal.NewFromInt(tier.Step)
	}
	n := hi.Sub(lo).Div(step).Floor().IntPart()
	if n <= 0 {
		return lo
	}
	k := l.rng.Int63n(n + 1)
	return lo.Add(step.Mul(decimal.NewFromInt(k)))
}

// tier returns the chunk tier the live balance falls in.
func (l *Ledger) tier() config.Tier {
	for _, t := range l.chunks.Tiers {
		if t.UpTo == 0 || l.balance.LessThanOrEqual(decimal.NewFromInt(t.UpTo)) {
			return t
		}
	}
	return l.chunks.Tiers[len(l.chunks.Tiers)-1]
}

// OneOperation sizes one outbound operation and debits it unless declined.
// Once any outbound was declined this lifetime, amounts are reduced.
func (l *Ledger) OneOperation(online, declined, inChunks bool) decimal.Decimal {
	var amount decimal.Decimal
	switch {
	case l.declinedCount > 0:
		amount = l.Reduce(online)
	case !inChunks:
		amount = l.balance
	default:
		amount = l.ChunkSize(online)
	}
	if amount.GreaterThan(l.balance) || !amount.IsPositive() {
		amount = l.balance
	}

	l.lastAmount = amount
	if declined {
		l.declinedCount++
		if l.declinedCount == 1 {
			l.firstDeclined = amount
		}
	} else {
		l.balance = l.balance.Sub(amount)
	}
	l.batchOps++
	return amount
}

// Reduce returns a smaller retry amount after a decline:
// max(floor, last - firstDeclined*reduce_share) rounded down. A balance
// below the eligibility minimum is sent whole.
func (l *Ledger) Reduce(online bool) decimal.Decimal {
	floor := decimal.NewFromInt(l.chunks.ATMMin)
	eligible := floor
	if online {
		floor = smallestChunk(l.chunks.Tiers)
		eligible = floor.Mul(decimal.NewFromInt(2))
	}
	if l.balance.LessThan(eligible) {
		return l.balance
	}
	cut := l.firstDeclined.Mul(l.reduceShare)
	amount := decimal.Max(floor, floorTo(l.lastAmount.Sub(cut), l.round))
	return decimal.Min(amount, l.balance)
}

// ResetBatch clears per-batch state.
func (l *Ledger) ResetBatch() {
	l.batchOps = 0
	l.chunk = decimal.Zero
}

// ResetLifetime clears everything, including the balance.
func (l *Ledger) ResetLifetime() {
	l.ResetBatch()
	l.balance = decimal.Zero
	l.declinedCount = 0
	l.lastAmount = decimal.Zero
	l.firstDeclined = decimal.Zero
}
