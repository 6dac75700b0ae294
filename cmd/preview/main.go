// Command preview filters and previews timesheet CSV exports in the
// terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "preview",
		Short:         "Filter and preview timesheet CSV exports",
		Long:          `preview loads a timesheet CSV export, narrows it by project, client and user, and shows the first rows or writes a timesheet report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newRenderCmd(), newReportCmd(), newSchemasCmd(), newTUICmd())
	return root
}
