package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnID_Deterministic(t *testing.T) {
	a := TxnID(42, "distributor", 7, 0)
	b := TxnID(42, "distributor", 7, 0)
	assert.Equal(t, a, b)
	require.NoError(t, Validate(a))
}

func TestTxnID_Distinct(t *testing.T) {
	tests := []struct {
		seed     int64
		role     string
		clientID int64
		seq      int
	}{
		{42, "distributor", 7, 1},
		{43, "distributor", 7, 0},
		{42, "purchaser", 7, 0},
		{42, "distributor", 8, 0},
	}
	base := TxnID(42, "distributor", 7, 0)
	for _, tt := range tests {
		got := TxnID(tt.seed, tt.role, tt.clientID, tt.seq)
		assert.NotEqual(t, base, got, "%+v", tt)
	}
}

func TestValidate_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-a-uuid",
		"2025-01-001",
		"00000000-0000-4000-8000-000000000000", // v4
	}
	for _, input := range badInputs {
		assert.Error(t, Validate(input), "expected error for input: %s", input)
	}
}

func TestSequence(t *testing.T) {
	seq := NewSequence(1, "purchaser")
	seq.Bind(100)
	first := seq.Next()
	second := seq.Next()

	assert.Equal(t, TxnID(1, "purchaser", 100, 0), first)
	assert.Equal(t, TxnID(1, "purchaser", 100, 1), second)

	seq.Reset()
	seq.Bind(100)
	assert.Equal(t, first, seq.Next(), "rebinding restarts numbering")
}
