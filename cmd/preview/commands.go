package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/tui"
	"github.com/JonMunkholm/timesheet/internal/web/templates"
)

func newRenderCmd() *cobra.Command {
	var (
		sel  selectionFlags
		html bool
	)
	cmd := &cobra.Command{
		Use:   "render <file.csv>",
		Short: "Print one preview of the filtered file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sel.loadSession(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if html {
				if err := templates.PreviewFragment(sess.Preview()).Render(cmd.Context(), out); err != nil {
					return err
				}
				_, err = fmt.Fprintln(out)
				return err
			}
			_, err = fmt.Fprintln(out, tui.RenderPreview(sess.Preview()))
			return err
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&html, "html", false, "print an HTML fragment instead of a text table")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		sel        selectionFlags
		maxDays    int
		schema     string
		format     string
		preparedBy string
		output     string
		fileType   string
	)
	cmd := &cobra.Command{
		Use:   "report <file.csv>",
		Short: "Write a timesheet report for the filtered file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sel.loadSession(args[0])
			if err != nil {
				return err
			}
			model, ok := sess.Model()
			if !ok {
				return core.ErrNoData
			}

			rep, err := core.BuildReport(cmd.Context(), model, sess.State(), core.ReportOptions{
				Schema:     schema,
				Format:     core.ParseDurationFormat(format),
				Output:     reportOutput(fileType, output),
				PreparedBy: preparedBy,
				MaxDays:    maxDays,
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := rep.Write(w); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s (%d entries)\n", output, rep.EntryCount)
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&schema, "schema", core.DefaultSchema, "report layout")
	cmd.Flags().StringVar(&format, "format", string(core.FormatDecimal), "duration format (decimal or hours)")
	cmd.Flags().StringVar(&preparedBy, "prepared-by", "", "name printed in the report header")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&fileType, "type", "", "csv or xlsx (default: xlsx when -o ends in .xlsx, else csv)")
	cmd.Flags().IntVar(&maxDays, "max-days", core.DefaultMaxReportDays, "longest period for day-by-day layouts")
	return cmd
}

// reportOutput picks the file type: an explicit --type wins, then the
// extension of the output path. Stdout defaults to CSV.
func reportOutput(fileType, path string) core.ReportOutput {
	if fileType != "" {
		return core.ParseReportOutput(fileType)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return core.OutputXLSX
	}
	return core.OutputCSV
}

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List report layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range core.Schemas() {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s: %s (%s)\n", s.Key, s.Name, s.Description)
			}
			return nil
		},
	}
}

func newTUICmd() *cobra.Command {
	var (
		maxRows   int
		reportDir string
		schema    string
		format    string
		fileType  string
		logFile   string
	)
	cmd := &cobra.Command{
		Use:   "tui <file.csv>",
		Short: "Browse the file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMaxRows(maxRows); err != nil {
				return err
			}

			// The screen belongs to the program; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}
			level := cmd.Flag("log-level").Value.String()
			logging.SetupWriter(logOut, level, "text")

			m := tui.New(args[0], tui.Options{
				MaxRows:   maxRows,
				ReportDir: reportDir,
				Report: core.ReportOptions{
					Schema: schema,
					Format: core.ParseDurationFormat(format),
					Output: core.ParseReportOutput(fileType),
				},
			})
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().IntVar(&maxRows, "max-rows", core.DefaultMaxPreviewRows, "maximum rows in the preview")
	cmd.Flags().StringVar(&reportDir, "report-dir", ".", "directory reports are written to")
	cmd.Flags().StringVar(&schema, "schema", core.DefaultSchema, "report layout")
	cmd.Flags().StringVar(&format, "format", string(core.FormatDecimal), "duration format (decimal or hours)")
	cmd.Flags().StringVar(&fileType, "type", string(core.OutputXLSX), "report file type (xlsx or csv)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}
