package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/model"
)

const (
	accountBase  = 40_000_000
	externalBase = 90_000_000
)

// SynthConfig sizes a synthetic dataset.
type SynthConfig struct {
	Clients          int
	ExternalAccounts int
	Merchants        int
	OnlineShare      float64
	MaxDevices       int
}

// DefaultSynth returns the sizes `dropsim init` uses.
func DefaultSynth() SynthConfig {
	return SynthConfig{
		Clients:          500,
		ExternalAccounts: 2000,
		Merchants:        200,
		OnlineShare:      0.5,
		MaxDevices:       3,
	}
}

type city struct {
	name     string
	lat, lon float64
}

var cities = []city{
	{"Moscow", 55.7558, 37.6173},
	{"Saint Petersburg", 59.9343, 30.3351},
	{"Novosibirsk", 55.0084, 82.9357},
	{"Yekaterinburg", 56.8389, 60.6057},
	{"Kazan", 55.7961, 49.1064},
	{"Nizhny Novgorod", 56.2965, 43.9361},
	{"Samara", 53.1959, 50.1002},
	{"Rostov-on-Don", 47.2357, 39.7015},
}

// Synthesize builds a seeded sample dataset: one account per client, a pool
// of external accounts, client devices and a merchant list.
func Synthesize(rng *rand.Rand, sc SynthConfig) *Dataset {
	ds := &Dataset{}

	accts := make([]model.Account, 0, sc.Clients)
	for i := 1; i <= sc.Clients; i++ {
		c := cities[rng.Intn(len(cities))]
		client := model.Client{
			ID:     int64(i),
			Lat:    jitter(rng, c.lat),
			Lon:    jitter(rng, c.lon),
			City:   c.name,
			HomeIP: fmt.Sprintf("%d.%d.%d.%d", 10+rng.Intn(200), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254)),
		}
		ds.Clients = append(ds.Clients, client)
		accts = append(accts, model.Account{ID: accountBase + int64(i), ClientID: client.ID})

		n := 1 + rng.Intn(max(sc.MaxDevices, 1))
		for j := 0; j < n; j++ {
			ds.Devices = append(ds.Devices, model.Device{ClientID: client.ID, ID: deviceID(rng)})
		}
	}
	ds.Accounts = accounts.NewTable(accts)

	for i := 1; i <= sc.ExternalAccounts; i++ {
		ds.External = append(ds.External, externalBase+int64(i))
	}

	for i := 1; i <= sc.Merchants; i++ {
		ds.Merchants = append(ds.Merchants, model.Merchant{
			ID:     fmt.Sprintf("M%06d", i),
			Online: rng.Float64() < sc.OnlineShare,
		})
	}
	return ds
}

// jitter moves a coordinate by up to 0.1 degrees, keeping the six decimals
// clients.csv stores.
func jitter(rng *rand.Rand, v float64) float64 {
	v += (rng.Float64() - 0.5) * 0.2
	return math.Round(v*1e6) / 1e6
}

// deviceID draws a UUID from rng so a seed reproduces the same devices.
func deviceID(rng *rand.Rand) string {
	u, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// *rand.Rand reads never fail.
		panic(err)
	}
	return u.String()
}
