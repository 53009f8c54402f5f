package drops

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/config"
)

// maxRejections bounds truncated normal sampling; after that the draw is
// clamped into range.
const maxRejections = 1000

// NewRNG creates a seeded random number generator. A zero seed uses the
// current time.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// truncNormal samples a normal distribution restricted to [low, high].
func truncNormal(rng *rand.Rand, low, high, mean, std float64) float64 {
	for i := 0; i < maxRejections; i++ {
		x := rng.NormFloat64()*std + mean
		if x >= low && x <= high {
			return x
		}
	}
	return math.Min(high, math.Max(low, mean))
}

// randomRange returns a random number in [min, max].
func randomRange(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}
	return min + rng.Intn(max-min+1)
}

func uniformFloat(rng *rand.Rand, r config.FloatRange) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// uniformSeconds draws a duration in [r.Min, r.Max] rounded to whole seconds.
func uniformSeconds(rng *rand.Rand, r config.DurationRange) int64 {
	lo, hi := r.Min.Seconds(), r.Max.Seconds()
	return int64(math.Round(lo + rng.Float64()*(hi-lo)))
}

// floorTo rounds d down to a multiple of step.
func floorTo(d, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return d
	}
	return d.Div(step).Floor().Mul(step)
}

// smallestChunk is the lowest transfer chunk any tier allows.
func smallestChunk(tiers []config.Tier) decimal.Decimal {
	if len(tiers) == 0 {
		return decimal.Zero
	}
	m := tiers[0].Min
	for _, t := range tiers[1:] {
		if t.Min < m {
			m = t.Min
		}
	}
	return decimal.NewFromInt(m)
}

// weightedPick returns the index chosen with probability proportional to
// its weight.
func weightedPick(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}
