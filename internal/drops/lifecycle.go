package drops

import (
	"fmt"

	"github.com/cleared-dev/dropsim/internal/model"
)

// BatchProcessor spends down one received batch.
type BatchProcessor struct {
	role     model.Role
	ledger   *Ledger
	selector Selector
	factory  *Factory
}

// Process generates outbound transactions until the balance is gone or the
// drop gives up after declines.
func (b *BatchProcessor) Process() ([]model.Transaction, error) {
	var txns []model.Transaction
	for b.ledger.Balance().IsPositive() {
		declined := b.factory.LimitReached()
		b.selector.NextIsOnline(b.ledger.BatchOps())

		var txn model.Transaction
		var err error
		if b.role == model.RolePurchaser || b.selector.ShouldRouteToCrypto() {
			txn, err = b.factory.Purchase(declined)
		} else {
			txn, err = b.factory.TransferOrATM(declined, b.selector.ShouldRouteToFellowDrop(), false)
		}
		if err != nil {
			return txns, err
		}
		txns = append(txns, txn)

		b.selector.AttemptsAfterFirstDecline(declined)
		b.selector.DeductAttempt(declined)
		if b.selector.ShouldStop(declined) {
			break
		}
	}
	return txns, nil
}

// Lifecycle runs a drop from its first inbound transfer until an inbound
// transfer is declined.
type Lifecycle struct {
	alloc    *Allocator
	ledger   *Ledger
	selector Selector
	factory  *Factory
	batch    *BatchProcessor
}

// Run returns every transaction of the bound drop. The caller resets
// lifetime state afterwards.
func (l *Lifecycle) Run() ([]model.Transaction, int, error) {
	if _, err := l.alloc.OwnAccount(); err != nil {
		return nil, 0, fmt.Errorf("binding drop account: %w", err)
	}
	if err := l.alloc.LabelAsDrop(); err != nil {
		return nil, 0, fmt.Errorf("labeling drop: %w", err)
	}

	var txns []model.Transaction
	batches := 0
	for {
		declined := l.factory.LimitReached()
		in, err := l.factory.TransferOrATM(declined, false, true)
		if err != nil {
			return txns, batches, fmt.Errorf("receiving batch: %w", err)
		}
		txns = append(txns, in)
		if declined {
			break
		}

		l.selector.SampleScenario(l.ledger.Balance())
		l.selector.SetChunkingFlag()
		out, err := l.batch.Process()
		txns = append(txns, out...)
		if err != nil {
			return txns, batches, fmt.Errorf("processing batch %d: %w", batches+1, err)
		}
		batches++

		l.ledger.ResetBatch()
		l.selector.Reset(false)
	}
	return txns, batches, nil
}
