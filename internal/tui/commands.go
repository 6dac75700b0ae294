package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// ReportTimeout bounds report generation from the terminal.
var ReportTimeout = 30 * time.Second

// DoneMsg carries a status line after a command succeeds.
type DoneMsg string

// ErrMsg carries a command failure.
type ErrMsg struct {
	Err error
}

func (e ErrMsg) Error() string { return e.Err.Error() }

type fileLoadedMsg struct {
	name  string
	table core.Table
}

type fileFailedMsg struct {
	name string
	err  error
}

// loadFile parses path off the update loop.
func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			return fileFailedMsg{name: name, err: fmt.Errorf("read file: %w", err)}
		}
		defer f.Close()

		table, err := core.ParseCSV(f)
		if err != nil {
			return fileFailedMsg{name: name, err: err}
		}
		return fileLoadedMsg{name: name, table: table}
	}
}

// writeReport builds a report from a snapshot of the session and writes it
// into dir.
func writeReport(model core.TableModel, state *core.FilterState, opts core.ReportOptions, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ReportTimeout)
		defer cancel()

		rep, err := core.BuildReport(ctx, model, state, opts)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrMsg{Err: fmt.Errorf("report timed out after %v", ReportTimeout)}
			}
			return ErrMsg{Err: err}
		}

		path := filepath.Join(dir, rep.FileName())
		f, err := os.Create(path)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("write report: %w", err)}
		}
		if err := rep.Write(f); err != nil {
			f.Close()
			return ErrMsg{Err: err}
		}
		if err := f.Close(); err != nil {
			return ErrMsg{Err: fmt.Errorf("write report: %w", err)}
		}
		return DoneMsg(fmt.Sprintf("Report written to %s (%d entries)", path, rep.EntryCount))
	}
}
