package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/dataset"
	"github.com/cleared-dev/dropsim/internal/drops"
)

// ConfigFile is the config file name `init` writes and `run` reads by default.
const ConfigFile = "dropsim.yaml"

func newInitCommand() *cobra.Command {
	var seed int64
	synth := dataset.DefaultSynth()

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a dropsim project with a synthetic dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, seed, synth)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 1, "seed of the synthetic dataset")
	cmd.Flags().IntVar(&synth.Clients, "clients", synth.Clients, "number of bank clients")
	cmd.Flags().IntVar(&synth.ExternalAccounts, "external", synth.ExternalAccounts, "number of accounts outside the bank")
	cmd.Flags().IntVar(&synth.Merchants, "merchants", synth.Merchants, "number of merchants")

	return cmd
}

func runInit(out io.Writer, dir string, seed int64, synth dataset.SynthConfig) error {
	cfgPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	if err := os.MkdirAll(filepath.Join(dir, cfg.Output.Dir), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	dc := cfg.Data
	dc.Dir = filepath.Join(dir, cfg.Data.Dir)
	ds := dataset.Synthesize(drops.NewRNG(seed), synth)
	if err := dataset.Save(dc, ds); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := cfg.Output.Dir + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized dropsim project at %s (%d clients)\n", dir, len(ds.Clients))
	return nil
}
