// Package partdata fills in the merchant, location and device fields of drop
// transactions from the client dataset.
package partdata

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cleared-dev/dropsim/internal/drops"
	"github.com/cleared-dev/dropsim/internal/model"
)

// ErrNoMerchants is returned when a purchase is requested without any
// online merchant to buy from.
var ErrNoMerchants = errors.New("no online merchants")

// Generator implements drops.PartialData.
type Generator struct {
	rng       *rand.Rand
	merchants []string
	devices   map[int64][]string

	client model.Client
	bound  bool
}

var _ drops.PartialData = (*Generator)(nil)

// New creates a Generator over the online merchants and client devices.
func New(rng *rand.Rand, merchants []model.Merchant, devices []model.Device) *Generator {
	g := &Generator{rng: rng, devices: make(map[int64][]string)}
	for _, m := range merchants {
		if m.Online {
			g.merchants = append(g.merchants, m.ID)
		}
	}
	for _, d := range devices {
		g.devices[d.ClientID] = append(g.devices[d.ClientID], d.ID)
	}
	return g
}

// Bind sets the client whose data is used.
func (g *Generator) Bind(client model.Client) {
	g.client = client
	g.bound = true
}

// PurchaseData returns the data of an online purchase made from the client's
// home connection and one of their devices.
func (g *Generator) PurchaseData(online bool) (drops.Partial, error) {
	if !g.bound {
		return drops.Partial{}, drops.ErrUnbound
	}
	if !online {
		return drops.Partial{}, fmt.Errorf("client %d: purchases are online only", g.client.ID)
	}
	if len(g.merchants) == 0 {
		return drops.Partial{}, ErrNoMerchants
	}
	return drops.Partial{
		MerchantID: g.merchants[g.rng.Intn(len(g.merchants))],
		Lat:        g.client.Lat,
		Lon:        g.client.Lon,
		HasGeo:     true,
		IP:         g.client.HomeIP,
		City:       g.client.City,
		DeviceID:   g.device(),
		Type:       model.TypePurchase,
	}, nil
}

// TransferData returns the data of an inbound transfer, an outbound online
// transfer or an ATM withdrawal. Inbound transfers carry no location.
func (g *Generator) TransferData(online, isInbound bool) (drops.Partial, error) {
	if !g.bound {
		return drops.Partial{}, drops.ErrUnbound
	}
	if isInbound {
		return drops.Partial{
			IP:      model.NotApplicable,
			City:    model.NotApplicable,
			Channel: model.ChannelTransfer,
			Type:    model.TypeInbound,
		}, nil
	}

	p := drops.Partial{
		Lat:    g.client.Lat,
		Lon:    g.client.Lon,
		HasGeo: true,
		City:   g.client.City,
	}
	if online {
		p.IP = g.client.HomeIP
		p.DeviceID = g.device()
		p.Channel = model.ChannelTransfer
		p.Type = model.TypeOutbound
	} else {
		p.IP = model.NotApplicable
		p.Channel = model.ChannelATM
		p.Type = model.TypeWithdrawal
	}
	return p, nil
}

func (g *Generator) device() string {
	ids := g.devices[g.client.ID]
	if len(ids) == 0 {
		return ""
	}
	return ids[g.rng.Intn(len(ids))]
}

// Reset forgets the bound client.
func (g *Generator) Reset() {
	g.client = model.Client{}
	g.bound = false
}
