package commands_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/export"
	"github.com/cleared-dev/dropsim/internal/model"
	"github.com/cleared-dev/dropsim/internal/runlog"
)

// smallProject initializes a project sized for quick runs and returns its
// config path.
func smallProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	initProject(t, dir)

	path := filepath.Join(dir, "dropsim.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Distributor.Count = 5
	cfg.Purchaser.Count = 3
	cfg.Output.SQLitePath = "output/dropsim.db"
	cfg.Output.MetricsFile = "output/dropsim.prom"
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestRun_WritesOutputs(t *testing.T) {
	cfgPath := smallProject(t)
	dir := filepath.Dir(cfgPath)

	out, err := runDropsim(t, "run", "--config", cfgPath, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "distributor: 5 drops")
	assert.Contains(t, out, "purchaser: 3 drops")

	for _, role := range []model.Role{model.RoleDistributor, model.RolePurchaser} {
		txns, err := export.ReadFile(filepath.Join(dir, "output", "transactions_"+string(role)+".csv"))
		require.NoError(t, err)
		assert.NotEmpty(t, txns, role)

		approved, declined := 0, 0
		for _, txn := range txns {
			if txn.Declined() {
				declined++
			} else {
				approved++
			}
		}
		assert.Contains(t, out, fmt.Sprintf("stored %s: %d approved, %d declined", role, approved, declined))
	}
	assert.Contains(t, out, "stored drop accounts: 8")
	for _, f := range []string{"dropsim.db", "dropsim.prom", runlog.FileName} {
		_, err := os.Stat(filepath.Join(dir, "output", f))
		assert.NoError(t, err, f)
	}

	table, err := accounts.Load(filepath.Join(dir, "data", "accounts.csv"))
	require.NoError(t, err)
	assert.Len(t, table.Drops(), 8, "every simulated drop is written back as labelled")

	entries, err := runlog.Read(filepath.Join(dir, "output"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(7), entries[0].Seed)
	assert.Equal(t, model.RoleDistributor, entries[0].Role)
	assert.Equal(t, 5, entries[0].Drops)
}

func TestRun_OutputPassesAudit(t *testing.T) {
	cfgPath := smallProject(t)
	dir := filepath.Dir(cfgPath)

	_, err := runDropsim(t, "run", "--config", cfgPath, "--seed", "11")
	require.NoError(t, err)

	for _, role := range []string{"distributor", "purchaser"} {
		out, err := runDropsim(t, "audit", filepath.Join(dir, "output", "transactions_"+role+".csv"))
		require.NoError(t, err, out)
		assert.Contains(t, out, "OK")
	}
}

func TestRun_SameSeedSameTransactions(t *testing.T) {
	read := func() []byte {
		cfgPath := smallProject(t)
		_, err := runDropsim(t, "run", "--config", cfgPath, "--seed", "3", "--role", "distributor")
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), "output", "transactions_distributor.csv"))
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, string(read()), string(read()))
}

func TestRun_SingleRole(t *testing.T) {
	cfgPath := smallProject(t)
	dir := filepath.Dir(cfgPath)

	out, err := runDropsim(t, "run", "--config", cfgPath, "--seed", "5", "--role", "purchaser")
	require.NoError(t, err)
	assert.NotContains(t, out, "distributor")

	_, err = os.Stat(filepath.Join(dir, "output", "transactions_distributor.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Errors(t *testing.T) {
	cfgPath := smallProject(t)

	_, err := runDropsim(t, "run", "--config", cfgPath, "--role", "mule")
	assert.ErrorContains(t, err, "unknown role")

	_, err = runDropsim(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Distributor.InLim = 0
	require.NoError(t, config.Save(cfgPath, cfg))
	_, err = runDropsim(t, "run", "--config", cfgPath)
	assert.ErrorContains(t, err, "invalid config")
}

func TestAudit_ReportsViolations(t *testing.T) {
	cfgPath := smallProject(t)
	dir := filepath.Dir(cfgPath)
	_, err := runDropsim(t, "run", "--config", cfgPath, "--seed", "2", "--role", "distributor")
	require.NoError(t, err)

	path := filepath.Join(dir, "output", "transactions_distributor.csv")
	txns, err := export.ReadFile(path)
	require.NoError(t, err)
	txns[0].IsFraud = !txns[0].IsFraud

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, export.WriteTransactions(f, txns))
	require.NoError(t, f.Close())

	out, err := runDropsim(t, "audit", path)
	require.Error(t, err)
	assert.Contains(t, out, "status")
}
