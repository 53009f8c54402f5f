package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/dropsim/internal/audit"
	"github.com/cleared-dev/dropsim/internal/export"
)

func newAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <transactions.csv>",
		Short: "Check a generated transactions file for lifecycle errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.OutOrStdout(), args[0])
		},
	}
}

func runAudit(out io.Writer, path string) error {
	txns, err := export.ReadFile(path)
	if err != nil {
		return err
	}

	violations := audit.Check(txns)
	for _, v := range violations {
		fmt.Fprintln(out, v.Error())
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d violations in %s", len(violations), path)
	}

	fmt.Fprintf(out, "%s: %d transactions OK\n", path, len(txns))
	return nil
}
