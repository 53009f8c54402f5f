package audit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/id"
	"github.com/cleared-dev/dropsim/internal/model"
)

var start = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

type builder struct {
	clientID int64
	seq      int
	txns     []model.Transaction
}

func (b *builder) add(typ model.TxnType, amount int64, account int64, declined bool) {
	ts := start.Add(time.Duration(len(b.txns)) * time.Hour)
	t := model.Transaction{
		ID:       id.TxnID(1, "distributor", b.clientID, b.seq),
		ClientID: b.clientID,
		Time:     ts,
		Unix:     ts.Unix(),
		Amount:   decimal.NewFromInt(amount),
		Type:     typ,
		Account:  account,
		Status:   model.StatusApproved,
		Rule:     model.RuleNotApplicable,
	}
	if declined {
		t.Status = model.StatusDeclined
		t.IsFraud = true
		t.Rule = model.RuleDropCashout
	}
	b.seq++
	b.txns = append(b.txns, t)
}

// validDrop: receive 10000, send 6000 and 4000 out, then get blocked.
func validDrop(clientID int64) *builder {
	b := &builder{clientID: clientID}
	b.add(model.TypeInbound, 10000, 4000001, false)
	b.add(model.TypeOutbound, 6000, 900001, false)
	b.add(model.TypeWithdrawal, 4000, 4000001, false)
	b.add(model.TypeOutbound, 3000, 900002, true)
	b.add(model.TypeInbound, 20000, 4000001, true)
	return b
}

func checks(vs []Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Check)
	}
	return out
}

func TestCheck_Valid(t *testing.T) {
	txns := append(validDrop(1).txns, validDrop(2).txns...)
	assert.Empty(t, Check(txns))
}

func TestCheck_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *builder)
		want   string
	}{
		{"starts with outbound", func(b *builder) { b.txns[0].Type = model.TypeOutbound; b.txns[0].Account = 900009 }, CheckFirstIn},
		{"no final decline", func(b *builder) { b.txns = b.txns[:4] }, CheckLastIn},
		{"overspent", func(b *builder) { b.txns[1].Amount = decimal.NewFromInt(12000) }, CheckBalance},
		{"repeated destination", func(b *builder) { b.txns[3].Account = 900001 }, CheckDestination},
		{"own destination", func(b *builder) { b.txns[1].Account = 4000001 }, CheckDestination},
		{"approved fraud", func(b *builder) { b.txns[1].IsFraud = true }, CheckStatus},
		{"declined without flag", func(b *builder) { b.txns[3].IsFraud = false }, CheckStatus},
		{"approved with rule", func(b *builder) { b.txns[2].Rule = model.RuleDropCashout }, CheckStatus},
		{"zero amount", func(b *builder) { b.txns[2].Amount = decimal.Zero }, CheckStatus},
		{"out of order", func(b *builder) {
			b.txns[2].Time = start.Add(-time.Hour)
			b.txns[2].Unix = b.txns[2].Time.Unix()
		}, CheckTimeOrder},
		{"activity after block", func(b *builder) { b.add(model.TypeOutbound, 100, 900003, true) }, CheckAfterEnd},
		{"bad id", func(b *builder) { b.txns[1].ID = "TXN-1" }, CheckID},
		{"duplicate id", func(b *builder) { b.txns[2].ID = b.txns[1].ID }, CheckID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validDrop(1)
			tt.mutate(b)
			vs := Check(b.txns)
			require.NotEmpty(t, vs)
			assert.Contains(t, checks(vs), tt.want)
		})
	}
}

func TestViolationError(t *testing.T) {
	v := Violation{Check: CheckBalance, ClientID: 7, TxnID: "abc", Description: "balance drops to -1.00"}
	assert.Equal(t, "balance [client 7, abc]: balance drops to -1.00", v.Error())
}
