package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/dropsim/internal/calendar"
	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/dataset"
	"github.com/cleared-dev/dropsim/internal/drops"
	"github.com/cleared-dev/dropsim/internal/export"
	"github.com/cleared-dev/dropsim/internal/logging"
	"github.com/cleared-dev/dropsim/internal/metrics"
	"github.com/cleared-dev/dropsim/internal/model"
	"github.com/cleared-dev/dropsim/internal/partdata"
	"github.com/cleared-dev/dropsim/internal/runlog"
	"github.com/cleared-dev/dropsim/internal/store"
)

const roleAll = "all"

type runOptions struct {
	configPath string
	role       string
	seed       int64
	seedSet    bool
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate drops and write their transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", ConfigFile, "path to the config file")
	cmd.Flags().StringVar(&opts.role, "role", roleAll, "role to simulate: distributor, purchaser or all")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "override the configured seed")

	return cmd
}

func runSimulation(ctx context.Context, out io.Writer, opts runOptions) error {
	roles, err := parseRoles(opts.role)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if opts.seedSet {
		cfg.Seed = opts.seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	resolvePaths(cfg, filepath.Dir(opts.configPath))

	logger, err := logging.New(cfg.Output.LogLevel, cfg.Output.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ds, err := dataset.Load(cfg.Data)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	start, end, err := cfg.Timestamps.Range()
	if err != nil {
		return err
	}
	cal, err := calendar.Build(start, end, cfg.Timestamps.Step)
	if err != nil {
		return fmt.Errorf("building calendar: %w", err)
	}

	var recorders []drops.Recorder
	var csvRec *export.Recorder
	if cfg.Output.CSV {
		csvRec = export.NewRecorder(cfg.Output.Dir, dataset.PathsFor(cfg.Data).Accounts)
		recorders = append(recorders, csvRec)
	}
	var db *store.SQLite
	if cfg.Output.SQLitePath != "" {
		db, err = store.Open(cfg.Output.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		recorders = append(recorders, db)
	}
	collector := metrics.NewCollector()

	logger.Info("starting run",
		zap.Int64("seed", cfg.Seed),
		zap.Int("clients", len(ds.Clients)),
		zap.Int("calendar_slots", cal.Len()),
	)

	rng := drops.NewRNG(cfg.Seed)
	parts := partdata.New(rng, ds.Merchants, ds.Devices)

	var entries []runlog.Entry
	for _, role := range roles {
		drop := drops.NewDrop(role, cfg, rng, drops.Deps{
			Accounts: ds.Accounts,
			External: ds.External,
			Calendar: cal,
			Parts:    parts,
		})
		clients := drops.SelectClients(rng, ds.Clients, ds.Accounts, cfg.Role(role).Count, ds.Accounts.DropClients())

		simOpts := []drops.Option{drops.WithObserver(collector), drops.WithLogger(logger)}
		for _, r := range recorders {
			simOpts = append(simOpts, drops.WithRecorder(r))
		}
		res, err := drops.NewSimulator(drop, ds.Accounts, simOpts...).Run(ctx, clients)
		if err != nil {
			return fmt.Errorf("simulating %s drops: %w", role, err)
		}

		entry := runlog.Entry{
			Timestamp:    time.Now().UTC(),
			Role:         role,
			Seed:         cfg.Seed,
			Drops:        res.Drops,
			Transactions: len(res.Transactions),
			Declined:     res.Declined,
		}
		if csvRec != nil {
			entry.Output = csvRec.Path(role)
		}
		entries = append(entries, entry)

		fmt.Fprintf(out, "%s: %d drops, %d transactions (%d declined)\n",
			role, res.Drops, len(res.Transactions), res.Declined)
	}

	if db != nil {
		if err := printStored(ctx, out, db, roles); err != nil {
			return err
		}
	}

	if err := runlog.Append(cfg.Output.Dir, entries); err != nil {
		logger.Warn("failed to write run log", zap.Error(err))
	}
	if cfg.Output.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

// printStored reports what the SQLite store holds after the run, which
// includes rows from earlier runs into the same database.
func printStored(ctx context.Context, out io.Writer, db *store.SQLite, roles []model.Role) error {
	for _, role := range roles {
		counts, err := db.Counts(ctx, role)
		if err != nil {
			return fmt.Errorf("reading stored counts: %w", err)
		}
		fmt.Fprintf(out, "stored %s: %d approved, %d declined\n",
			role, counts[model.StatusApproved], counts[model.StatusDeclined])
	}
	ids, err := db.DropAccounts(ctx)
	if err != nil {
		return fmt.Errorf("reading stored drop accounts: %w", err)
	}
	fmt.Fprintf(out, "stored drop accounts: %d\n", len(ids))
	return nil
}

func parseRoles(s string) ([]model.Role, error) {
	if s == roleAll {
		return []model.Role{model.RoleDistributor, model.RolePurchaser}, nil
	}
	role := model.Role(s)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", s)
	}
	return []model.Role{role}, nil
}

// resolvePaths makes relative data and output paths relative to the config
// file's directory.
func resolvePaths(cfg *config.Config, base string) {
	for _, p := range []*string{&cfg.Data.Dir, &cfg.Output.Dir, &cfg.Output.SQLitePath, &cfg.Output.MetricsFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
