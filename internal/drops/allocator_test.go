package drops

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/model"
)

func newTestAllocator(external []int64, minFellows int, drops ...int64) (*Allocator, *accounts.Table) {
	accts := []model.Account{
		{ID: 1001, ClientID: 1},
		{ID: 1002, ClientID: 2},
		{ID: 1003, ClientID: 3},
		{ID: 1004, ClientID: 4},
		{ID: 1005, ClientID: 5},
	}
	for i := range accts {
		for _, d := range drops {
			if accts[i].ID == d {
				accts[i].IsDrop = true
			}
		}
	}
	tbl := accounts.NewTable(accts)
	return NewAllocator(rand.New(rand.NewSource(1)), tbl, external, minFellows), tbl
}

func TestAllocator_Unbound(t *testing.T) {
	a, _ := newTestAllocator([]int64{9001}, 1)

	_, err := a.OwnAccount()
	assert.ErrorIs(t, err, ErrUnbound)
	_, err = a.PickDestination(false)
	assert.ErrorIs(t, err, ErrUnbound)
	assert.ErrorIs(t, a.LabelAsDrop(), ErrUnbound)
}

func TestAllocator_OwnAccountAndLabel(t *testing.T) {
	a, tbl := newTestAllocator(nil, 1)
	a.Bind(2)

	own, err := a.OwnAccount()
	require.NoError(t, err)
	assert.Equal(t, int64(1002), own)

	again, err := a.OwnAccount()
	require.NoError(t, err)
	assert.Equal(t, own, again)

	require.NoError(t, a.LabelAsDrop())
	assert.Equal(t, []int64{1002}, tbl.Drops())
}

func TestAllocator_UnknownClient(t *testing.T) {
	a, _ := newTestAllocator(nil, 1)
	a.Bind(99)
	_, err := a.OwnAccount()
	assert.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestAllocator_ExternalNoRepeats(t *testing.T) {
	external := []int64{9001, 9002, 9003, 9004}
	a, _ := newTestAllocator(external, 1)
	a.Bind(1)

	seen := make(map[int64]bool)
	for range external {
		id, err := a.PickDestination(false)
		require.NoError(t, err)
		assert.Contains(t, external, id)
		assert.False(t, seen[id], "destination %d repeated", id)
		seen[id] = true
	}

	_, err := a.PickDestination(false)
	assert.ErrorIs(t, err, ErrExternalPoolExhausted)
}

func TestAllocator_FellowDrops(t *testing.T) {
	a, _ := newTestAllocator([]int64{9001}, 1, 1001, 1003, 1004)
	a.Bind(1)

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		id, err := a.PickDestination(true)
		require.NoError(t, err)
		assert.NotEqual(t, int64(1001), id, "never the drop's own account")
		assert.Contains(t, []int64{1003, 1004}, id)
		assert.False(t, seen[id])
		seen[id] = true
	}

	// Both fellows are used; the external pool takes over.
	id, err := a.PickDestination(true)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), id)
}

func TestAllocator_FellowMinimumFallsBack(t *testing.T) {
	a, _ := newTestAllocator([]int64{9001, 9002}, 3, 1002, 1003)
	a.Bind(1)

	for i := 0; i < 2; i++ {
		id, err := a.PickDestination(true)
		require.NoError(t, err)
		assert.Contains(t, []int64{9001, 9002}, id, "too few fellow drops")
	}
}

func TestAllocator_Reset(t *testing.T) {
	a, _ := newTestAllocator([]int64{9001}, 1)
	a.Bind(1)
	_, err := a.PickDestination(false)
	require.NoError(t, err)

	a.Reset()
	_, err = a.OwnAccount()
	assert.ErrorIs(t, err, ErrUnbound)

	a.Bind(2)
	id, err := a.PickDestination(false)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), id, "used destinations are per drop")
}
