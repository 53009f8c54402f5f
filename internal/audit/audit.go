// Package audit checks generated drop transactions for lifecycle
// consistency.
package audit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/id"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Check names.
const (
	CheckID          = "id"
	CheckFirstIn     = "first_inbound"
	CheckLastIn      = "last_inbound"
	CheckAfterEnd    = "after_declined_inbound"
	CheckBalance     = "balance"
	CheckDestination = "destination"
	CheckStatus      = "status"
	CheckTimeOrder   = "time_order"
)

// Violation describes a single failed check.
type Violation struct {
	Check       string
	ClientID    int64
	TxnID       string
	Description string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s [client %d, %s]: %s", v.Check, v.ClientID, v.TxnID, v.Description)
}

// Check audits transactions grouped by client, in file order.
func Check(txns []model.Transaction) []Violation {
	var violations []Violation

	groups := make(map[int64][]model.Transaction)
	var order []int64
	seen := make(map[string]bool)
	for _, t := range txns {
		if _, ok := groups[t.ClientID]; !ok {
			order = append(order, t.ClientID)
		}
		groups[t.ClientID] = append(groups[t.ClientID], t)

		if err := id.Validate(t.ID); err != nil {
			violations = append(violations, Violation{CheckID, t.ClientID, t.ID, err.Error()})
		} else if seen[t.ID] {
			violations = append(violations, Violation{CheckID, t.ClientID, t.ID, "duplicate transaction id"})
		}
		seen[t.ID] = true
	}

	for _, clientID := range order {
		violations = append(violations, checkDrop(clientID, groups[clientID])...)
	}
	return violations
}

func checkDrop(clientID int64, txns []model.Transaction) []Violation {
	var violations []Violation
	fail := func(check string, t model.Transaction, format string, args ...any) {
		violations = append(violations, Violation{check, clientID, t.ID, fmt.Sprintf(format, args...)})
	}

	first, last := txns[0], txns[len(txns)-1]
	if first.Type != model.TypeInbound {
		fail(CheckFirstIn, first, "first transaction is %s, not inbound", first.Type)
	}
	if last.Type != model.TypeInbound || !last.Declined() {
		fail(CheckLastIn, last, "drop does not end with a declined inbound transfer")
	}

	balance := decimal.Zero
	var own int64
	destinations := make(map[int64]bool)
	for i, t := range txns {
		if i > 0 && t.Unix < txns[i-1].Unix {
			fail(CheckTimeOrder, t, "timestamp %d before previous %d", t.Unix, txns[i-1].Unix)
		}
		if t.Time.Unix() != t.Unix {
			fail(CheckTimeOrder, t, "timestamp and unix_time disagree")
		}
		if i > 0 && txns[i-1].Type == model.TypeInbound && txns[i-1].Declined() {
			fail(CheckAfterEnd, t, "transaction after a declined inbound transfer")
		}

		checkStatus(t, fail)

		switch t.Type {
		case model.TypeInbound:
			if own == 0 {
				own = t.Account
			}
		case model.TypeOutbound:
			if t.Account == own {
				fail(CheckDestination, t, "transfer to own account %d", t.Account)
			}
			if destinations[t.Account] {
				fail(CheckDestination, t, "account %d used twice", t.Account)
			}
			destinations[t.Account] = true
		}

		if t.Declined() {
			continue
		}
		if t.Type == model.TypeInbound {
			balance = balance.Add(t.Amount)
		} else {
			balance = balance.Sub(t.Amount)
		}
		if balance.IsNegative() {
			fail(CheckBalance, t, "balance drops to %s", balance.StringFixed(2))
		}
	}
	return violations
}

func checkStatus(t model.Transaction, fail func(string, model.Transaction, string, ...any)) {
	switch t.Status {
	case model.StatusDeclined:
		if !t.IsFraud {
			fail(CheckStatus, t, "declined transaction not flagged as fraud")
		}
		if t.Rule == model.RuleNotApplicable {
			fail(CheckStatus, t, "declined transaction has no rule")
		}
	case model.StatusApproved:
		if t.IsFraud {
			fail(CheckStatus, t, "approved transaction flagged as fraud")
		}
		if t.Rule != model.RuleNotApplicable {
			fail(CheckStatus, t, "approved transaction carries rule %q", t.Rule)
		}
	default:
		fail(CheckStatus, t, "unknown status %q", t.Status)
	}
	if !t.Amount.IsPositive() {
		fail(CheckStatus, t, "non-positive amount %s", t.Amount)
	}
}
