package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/model"
)

func sampleAccounts() []model.Account {
	return []model.Account{
		{ID: 1001, ClientID: 1},
		{ID: 1002, ClientID: 2},
		{ID: 1003, ClientID: 3, IsDrop: true},
	}
}

func TestNewTable(t *testing.T) {
	tbl := NewTable(sampleAccounts())
	assert.Equal(t, 3, tbl.Len())
	assert.Len(t, tbl.All(), 3)
}

func TestGetAndAccountOf(t *testing.T) {
	tbl := NewTable(sampleAccounts())

	acct, ok := tbl.Get(1002)
	require.True(t, ok)
	assert.Equal(t, int64(2), acct.ClientID)

	_, ok = tbl.Get(9999)
	assert.False(t, ok)

	acct, ok = tbl.AccountOf(3)
	require.True(t, ok)
	assert.Equal(t, int64(1003), acct.ID)

	_, ok = tbl.AccountOf(42)
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	tbl := NewTable(sampleAccounts())

	require.NoError(t, tbl.Label(1001))
	acct, _ := tbl.Get(1001)
	assert.True(t, acct.IsDrop)
	assert.Equal(t, []int64{1001, 1003}, tbl.Drops())
	assert.Equal(t, map[int64]bool{1: true, 3: true}, tbl.DropClients())

	err := tbl.Label(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoad(t *testing.T) {
	tbl := NewTable(sampleAccounts())
	require.NoError(t, tbl.Label(1002))

	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, tbl.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.All(), got.All())
	assert.Equal(t, []int64{1002, 1003}, got.Drops())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadExternal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "external_accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte("account_id\n5\n6\n"), 0o644))

	ids, err := LoadExternal(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, ids)
}
