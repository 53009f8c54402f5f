package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Recorder writes each role's transactions to <dir>/transactions_<role>.csv
// and writes the account table back to accountsPath.
type Recorder struct {
	dir          string
	accountsPath string
}

// NewRecorder creates a Recorder. An empty accountsPath skips the account
// write-back.
func NewRecorder(dir, accountsPath string) *Recorder {
	return &Recorder{dir: dir, accountsPath: accountsPath}
}

// Path returns the transactions file of a role.
func (r *Recorder) Path(role model.Role) string {
	return filepath.Join(r.dir, fmt.Sprintf("transactions_%s.csv", role))
}

// RecordTransactions replaces the role's transactions file.
func (r *Recorder) RecordTransactions(_ context.Context, role model.Role, txns []model.Transaction) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := r.Path(role)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteTransactions(f, txns); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// RecordAccounts writes the account table, drop labels included.
func (r *Recorder) RecordAccounts(_ context.Context, accts []model.Account) error {
	if r.accountsPath == "" {
		return nil
	}
	if err := accounts.NewTable(accts).Save(r.accountsPath); err != nil {
		return fmt.Errorf("writing back accounts: %w", err)
	}
	return nil
}

// ReadFile reads a transactions file.
func ReadFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()
	return ReadTransactions(f)
}
