package model

// Device is a device a client uses for online banking.
type Device struct {
	ClientID int64
	ID       string
}

// Merchant is a merchant in merchants.csv. Only online merchants receive
// drop purchases.
type Merchant struct {
	ID     string
	Online bool
}
