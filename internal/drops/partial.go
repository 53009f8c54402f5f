package drops

import "github.com/cleared-dev/dropsim/internal/model"

// Partial is the merchant, location and device part of a transaction that
// the engine does not decide itself.
type Partial struct {
	MerchantID string
	Lat        float64
	Lon        float64
	HasGeo     bool
	IP         string
	City       string
	DeviceID   string
	Channel    model.Channel // empty for purchases; the factory sets it
	Type       model.TxnType
}

// PartialData supplies Partial values for the bound client.
type PartialData interface {
	Bind(client model.Client)
	PurchaseData(online bool) (Partial, error)
	TransferData(online, isInbound bool) (Partial, error)
	Reset()
}
