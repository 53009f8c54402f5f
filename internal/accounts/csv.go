package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cleared-dev/dropsim/internal/model"
)

const (
	numFields   = 3
	colID       = 0
	colClientID = 1
	colIsDrop   = 2
)

// Header is the accounts.csv header row.
var Header = []string{"account_id", "client_id", "is_drop"}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(acct.ID, 10)
	row[colClientID] = strconv.FormatInt(acct.ClientID, 10)
	row[colIsDrop] = strconv.FormatBool(acct.IsDrop)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.ParseInt(record[colID], 10, 64)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	clientID, err := strconv.ParseInt(record[colClientID], 10, 64)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing client_id %q: %w", record[colClientID], err)
	}

	isDrop, err := strconv.ParseBool(record[colIsDrop])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing is_drop %q: %w", record[colIsDrop], err)
	}

	return model.Account{ID: id, ClientID: clientID, IsDrop: isDrop}, nil
}

// ReadExternal reads external_accounts.csv, a single account_id column of
// accounts held at other banks.
func ReadExternal(r io.Reader) ([]int64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading external accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(records)-1)
	for i, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing account_id %q: %w", i+2, rec[0], err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// WriteExternal writes external_accounts.csv.
func WriteExternal(w io.Writer, ids []int64) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, id := range ids {
		if err := cw.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadExternal reads external_accounts.csv from path.
func LoadExternal(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening external accounts: %w", err)
	}
	defer f.Close()

	ids, err := ReadExternal(f)
	if err != nil {
		return nil, fmt.Errorf("reading external accounts: %w", err)
	}
	return ids, nil
}
