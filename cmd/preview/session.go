package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// selectionFlags are the filter and column flags shared by the one-shot
// commands.
type selectionFlags struct {
	projects []string
	clients  []string
	users    []string
	columns  []string
	maxRows  int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	// Category values may contain commas, so each flag carries one value.
	cmd.Flags().StringArrayVar(&f.projects, "project", nil, "keep rows with this Project (repeatable)")
	cmd.Flags().StringArrayVar(&f.clients, "client", nil, "keep rows with this Client (repeatable)")
	cmd.Flags().StringArrayVar(&f.users, "user", nil, "keep rows with this User (repeatable)")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "columns to show (default: all)")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", core.DefaultMaxPreviewRows, "maximum rows in the preview")
}

// loadSession parses path and applies the flags as session messages.
func (f *selectionFlags) loadSession(path string) (*core.Session, error) {
	if err := validateMaxRows(f.maxRows); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	defer file.Close()

	table, err := core.ParseCSV(file)
	if err != nil {
		return nil, err
	}

	sess := core.NewSession("cli", f.maxRows)
	sess.Update(core.FileLoaded{Name: filepath.Base(path), Table: table})

	if len(f.columns) > 0 {
		sess.Update(core.ColumnsSet{Columns: f.columns})
	}
	for field, values := range map[core.CategoryField][]string{
		core.FieldProject: f.projects,
		core.FieldClient:  f.clients,
		core.FieldUser:    f.users,
	} {
		if len(values) > 0 {
			sess.Update(core.CategoryFilterChanged{Field: field, Values: values})
		}
	}

	slog.Debug("file loaded",
		"file", sess.FileName,
		"rows", table.Len(),
		"filters", sess.State().ActiveFilterCount(),
	)
	return sess, nil
}

func validateMaxRows(n int) error {
	if n <= 0 {
		return fmt.Errorf("--max-rows must be positive, got %d", n)
	}
	return nil
}
