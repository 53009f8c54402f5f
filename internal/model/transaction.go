package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the direction or kind of a transaction.
type TxnType string

const (
	TypeInbound    TxnType = "inbound"
	TypeOutbound   TxnType = "outbound"
	TypeWithdrawal TxnType = "withdrawal"
	TypePurchase   TxnType = "purchase"
)

// Channel is the rail a transaction went through.
type Channel string

const (
	ChannelTransfer Channel = "transfer"
	ChannelATM      Channel = "ATM"
	ChannelCrypto   Channel = "crypto_exchange"
	ChannelEcom     Channel = "ecom"
)

// Status is the anti-fraud outcome of a transaction.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// NotApplicable fills text fields that do not apply to a transaction.
const NotApplicable = "not applicable"

// Rule names and categories recorded on drop transactions.
const (
	RuleNotApplicable     = NotApplicable
	RuleDropCashout       = "drop_flow_cashout"
	RuleDropPurchaser     = "drop_purchaser"
	CategoryNotApplicable = NotApplicable
	CategoryBalanceTopUp  = "balance_top_up"
)

// Transaction is one generated record. It is built once and never mutated.
type Transaction struct {
	ID           string
	ClientID     int64
	Time         time.Time
	Unix         int64
	Amount       decimal.Decimal
	Type         TxnType
	Channel      Channel
	Category     string
	Online       bool
	MerchantID   string // empty when not applicable
	City         string // empty when not applicable
	Lat          float64
	Lon          float64
	HasGeo       bool
	IP           string
	DeviceID     string
	Account      int64 // 0 = no counterparty account (purchases)
	IsFraud      bool
	IsSuspicious bool
	Status       Status
	Rule         string
}

// Declined reports whether the transaction was declined.
func (t Transaction) Declined() bool {
	return t.Status == StatusDeclined
}

// Outgoing reports whether money left the drop's account.
func (t Transaction) Outgoing() bool {
	return t.Type != TypeInbound
}
