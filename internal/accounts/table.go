package accounts

import (
	"errors"
	"fmt"
	"os"

	"github.com/cleared-dev/dropsim/internal/model"
)

// ErrNotFound is returned when an account id is not in the table.
var ErrNotFound = errors.New("account not found")

// Table is the bank's account registry. It is shared by every drop of a run
// and mutated only through Label.
type Table struct {
	accounts []model.Account
	byID     map[int64]int
	byClient map[int64]int
}

// NewTable creates a Table from a slice of accounts. The first account of a
// client is the one AccountOf returns.
func NewTable(accounts []model.Account) *Table {
	t := &Table{
		accounts: accounts,
		byID:     make(map[int64]int, len(accounts)),
		byClient: make(map[int64]int, len(accounts)),
	}
	for i, a := range accounts {
		t.byID[a.ID] = i
		if _, ok := t.byClient[a.ClientID]; !ok {
			t.byClient[a.ClientID] = i
		}
	}
	return t
}

// Load reads accounts.csv and returns a Table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return NewTable(accts), nil
}

// Save writes the table, including drop labels, to path.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, t.accounts); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}

// All returns all accounts.
func (t *Table) All() []model.Account {
	return t.accounts
}

// Len returns the number of accounts.
func (t *Table) Len() int {
	return len(t.accounts)
}

// Get returns an account by ID.
func (t *Table) Get(id int64) (model.Account, bool) {
	i, ok := t.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return t.accounts[i], true
}

// AccountOf returns the account owned by a client.
func (t *Table) AccountOf(clientID int64) (model.Account, bool) {
	i, ok := t.byClient[clientID]
	if !ok {
		return model.Account{}, false
	}
	return t.accounts[i], true
}

// Label marks an account as belonging to a drop.
func (t *Table) Label(id int64) error {
	i, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("labeling account %d: %w", id, ErrNotFound)
	}
	t.accounts[i].IsDrop = true
	return nil
}

// Drops returns the ids of accounts labeled as drops, in table order.
func (t *Table) Drops() []int64 {
	var ids []int64
	for _, a := range t.accounts {
		if a.IsDrop {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// DropClients returns the set of clients whose account is labeled.
func (t *Table) DropClients() map[int64]bool {
	clients := make(map[int64]bool)
	for _, a := range t.accounts {
		if a.IsDrop {
			clients[a.ClientID] = true
		}
	}
	return clients
}
