package drops

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/calendar"
	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/model"
)

// fakeParts returns fixed partial data and counts purchase draws.
type fakeParts struct {
	client    model.Client
	purchases int
}

func (f *fakeParts) Bind(c model.Client) { f.client = c }

func (f *fakeParts) PurchaseData(online bool) (Partial, error) {
	f.purchases++
	return Partial{
		MerchantID: fmt.Sprintf("m-%d", f.purchases),
		Lat:        f.client.Lat,
		Lon:        f.client.Lon,
		HasGeo:     true,
		IP:         f.client.HomeIP,
		City:       f.client.City,
		DeviceID:   "dev-1",
		Type:       model.TypePurchase,
	}, nil
}

func (f *fakeParts) TransferData(online, isInbound bool) (Partial, error) {
	switch {
	case isInbound:
		return Partial{IP: "not applicable", City: "not applicable", Channel: model.ChannelTransfer, Type: model.TypeInbound}, nil
	case online:
		return Partial{IP: f.client.HomeIP, City: f.client.City, DeviceID: "dev-1", HasGeo: true,
			Channel: model.ChannelTransfer, Type: model.TypeOutbound}, nil
	default:
		return Partial{IP: "not applicable", City: f.client.City, HasGeo: true,
			Channel: model.ChannelATM, Type: model.TypeWithdrawal}, nil
	}
}

func (f *fakeParts) Reset() {
	f.client = model.Client{}
	f.purchases = 0
}

type env struct {
	cfg      *config.Config
	rng      *rand.Rand
	table    *accounts.Table
	external []int64
	clients  []model.Client
	cal      *calendar.Table
	parts    *fakeParts
}

func newEnv(t *testing.T, cfg *config.Config, nClients int, seed int64) *env {
	t.Helper()
	var accts []model.Account
	var clients []model.Client
	for i := 1; i <= nClients; i++ {
		id := int64(i)
		accts = append(accts, model.Account{ID: 1000 + id, ClientID: id})
		clients = append(clients, model.Client{ID: id, Lat: 55.75, Lon: 37.61, City: "Moscow", HomeIP: fmt.Sprintf("10.0.0.%d", i)})
	}
	var external []int64
	for i := 0; i < 500; i++ {
		external = append(external, 900000+int64(i))
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cal, err := calendar.Build(start, start.AddDate(0, 1, 0), time.Minute)
	require.NoError(t, err)

	return &env{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		table:    accounts.NewTable(accts),
		external: external,
		clients:  clients,
		cal:      cal,
		parts:    &fakeParts{},
	}
}

func (e *env) drop(role model.Role) *Drop {
	return NewDrop(role, e.cfg, e.rng, Deps{
		Accounts: e.table,
		External: e.external,
		Calendar: e.cal,
		Parts:    e.parts,
	})
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// runningBalances replays a drop's transactions and returns the balance
// after each one.
func runningBalances(txns []model.Transaction) []decimal.Decimal {
	bal := decimal.Zero
	out := make([]decimal.Decimal, 0, len(txns))
	for _, t := range txns {
		if !t.Declined() {
			if t.Outgoing() {
				bal = bal.Sub(t.Amount)
			} else {
				bal = bal.Add(t.Amount)
			}
		}
		out = append(out, bal)
	}
	return out
}
