package drops

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/id"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Factory assembles transaction records and owns the lifetime caps. Once
// either cap is reached every further transaction is declined.
type Factory struct {
	role       model.Role
	rng        *rand.Rand
	inLim      int
	outLim     int
	categories []string
	weights    []float64

	clock    *Clock
	ledger   *Ledger
	alloc    *Allocator
	selector Selector
	parts    PartialData
	ids      *id.Sequence

	clientID     int64
	in           int
	out          int
	last         *model.Transaction
	lastPurchase *Partial
}

// NewFactory wires a Factory to the collaborators of one drop.
func NewFactory(role model.Role, rng *rand.Rand, cfg config.RoleConfig, clock *Clock, ledger *Ledger,
	alloc *Allocator, selector Selector, parts PartialData, ids *id.Sequence) *Factory {
	f := &Factory{
		role:     role,
		rng:      rng,
		inLim:    cfg.InLim,
		outLim:   cfg.OutLim,
		clock:    clock,
		ledger:   ledger,
		alloc:    alloc,
		selector: selector,
		parts:    parts,
		ids:      ids,
	}
	for _, c := range cfg.Categories {
		f.categories = append(f.categories, c.Name)
		f.weights = append(f.weights, c.Weight)
	}
	return f
}

// Bind sets the client whose transactions are built.
func (f *Factory) Bind(clientID int64) {
	f.clientID = clientID
	f.ids.Bind(clientID)
}

// Counts returns the lifetime inbound and outbound counters.
func (f *Factory) Counts() (int, int) { return f.in, f.out }

// LimitReached reports whether a lifetime cap is already reached. It is
// polled before each generation to decide the decline status.
func (f *Factory) LimitReached() bool {
	return f.in >= f.inLim || f.out >= f.outLim
}

// TransferOrATM builds an inbound transfer, an outbound transfer or an ATM
// withdrawal, depending on isInbound and the selector's online flag.
func (f *Factory) TransferOrATM(declined, toFellowDrop, isInbound bool) (model.Transaction, error) {
	ts, unix := f.clock.NextTimestamp(isInbound, f.in)
	online := f.selector.Online()

	var account int64
	var err error
	switch {
	case isInbound:
		f.in++
		online = true
		account, err = f.alloc.OwnAccount()
	case online:
		f.out++
		account, err = f.alloc.PickDestination(toFellowDrop)
	default:
		f.out++
		account, err = f.alloc.OwnAccount()
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("resolving account: %w", err)
	}

	p, err := f.parts.TransferData(online, isInbound)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("generating transfer data: %w", err)
	}

	var amount decimal.Decimal
	if isInbound {
		amount = f.ledger.Receive(declined)
	} else {
		amount = f.ledger.OneOperation(online, declined, f.selector.Chunking())
	}

	txn := f.build(ts, unix, amount, p, online, declined)
	txn.Channel = p.Channel
	txn.Category = model.CategoryNotApplicable
	txn.Account = account
	f.last = &txn
	return txn, nil
}

// Purchase builds an online purchase: a crypto exchange top-up for
// distributors, a merchandise order for purchasers. Consecutive crypto
// top-ups reuse the same merchant and device.
func (f *Factory) Purchase(declined bool) (model.Transaction, error) {
	ts, unix := f.clock.NextTimestamp(false, f.in)
	online := f.selector.Online()
	f.out++

	var p Partial
	if f.reuseCrypto() {
		p = *f.lastPurchase
	} else {
		var err error
		p, err = f.parts.PurchaseData(online)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("generating purchase data: %w", err)
		}
		f.lastPurchase = &p
	}

	amount := f.ledger.OneOperation(online, declined, f.selector.Chunking())

	txn := f.build(ts, unix, amount, p, online, declined)
	txn.Channel, txn.Category = f.categoryAndChannel()
	f.last = &txn
	return txn, nil
}

func (f *Factory) reuseCrypto() bool {
	return f.role == model.RoleDistributor &&
		f.last != nil &&
		f.last.Channel == model.ChannelCrypto &&
		f.lastPurchase != nil
}

func (f *Factory) categoryAndChannel() (model.Channel, string) {
	if f.role == model.RoleDistributor {
		return model.ChannelCrypto, model.CategoryBalanceTopUp
	}
	if len(f.categories) == 0 {
		return model.ChannelEcom, model.CategoryNotApplicable
	}
	return model.ChannelEcom, f.categories[weightedPick(f.rng, f.weights)]
}

func (f *Factory) build(ts time.Time, unix int64, amount decimal.Decimal, p Partial, online, declined bool) model.Transaction {
	txn := model.Transaction{
		ID:         f.ids.Next(),
		ClientID:   f.clientID,
		Time:       ts,
		Unix:       unix,
		Amount:     amount,
		Type:       p.Type,
		Online:     online,
		MerchantID: p.MerchantID,
		City:       p.City,
		Lat:        p.Lat,
		Lon:        p.Lon,
		HasGeo:     p.HasGeo,
		IP:         p.IP,
		DeviceID:   p.DeviceID,
		Status:     model.StatusApproved,
		Rule:       model.RuleNotApplicable,
	}
	if declined {
		txn.Status = model.StatusDeclined
		txn.IsFraud = true
		txn.Rule = model.RuleDropCashout
		if f.role == model.RolePurchaser {
			txn.Rule = model.RuleDropPurchaser
		}
	}
	return txn
}

// Reset zeroes the lifetime counters and, unless onlyCounters, forgets the
// last transaction.
func (f *Factory) Reset(onlyCounters bool) {
	f.in, f.out = 0, 0
	if onlyCounters {
		return
	}
	f.clientID = 0
	f.last = nil
	f.lastPurchase = nil
}
