package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1001, ClientID: 11},
		{ID: 1002, ClientID: 12, IsDrop: true},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, accounts, got)
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, nil))
	assert.Equal(t, "account_id,client_id,is_drop\n", buf.String())
}

func TestReadEmpty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"wrong field count", []string{"1", "2"}},
		{"bad id", []string{"x", "2", "false"}},
		{"bad client", []string{"1", "y", "false"}},
		{"bad flag", []string{"1", "2", "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAccount(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestReadAccounts_RowNumberInError(t *testing.T) {
	input := "account_id,client_id,is_drop\n1,2,false\n3,oops,true\n"
	_, err := ReadAccounts(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestExternalRoundTrip(t *testing.T) {
	ids := []int64{900001, 900002, 900003}

	var buf bytes.Buffer
	require.NoError(t, WriteExternal(&buf, ids))

	got, err := ReadExternal(&buf)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
}
