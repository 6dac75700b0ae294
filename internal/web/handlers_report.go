package web

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/web/templates"
)

type reportRequest struct {
	Schema     string `json:"schema"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	PreparedBy string `json:"preparedBy"`
}

// handleReport builds the report for the session's current selections and
// sends it as a download: a workbook unless output=csv is requested.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := logging.FromContext(r.Context())

	var req reportRequest
	if isJSONBody(r) {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.Schema = r.FormValue("schema")
		req.Format = r.FormValue("formatSelect")
		req.Output = r.FormValue("output")
		req.PreparedBy = r.FormValue("prepared_by")
	}
	if req.Schema == "" {
		req.Schema = core.DefaultSchema
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	defer s.limiter.Release()

	var (
		model core.TableModel
		state *core.FilterState
	)
	err := s.sessions.View(id, func(sess *core.Session) error {
		m, ok := sess.Model()
		if !ok {
			return core.ErrNoData
		}
		model, state = m, sess.State()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Report.Timeout)
	defer cancel()

	rep, err := core.BuildReport(ctx, model, state, core.ReportOptions{
		Schema:     req.Schema,
		Format:     core.ParseDurationFormat(req.Format),
		Output:     core.ParseReportOutput(req.Output),
		PreparedBy: req.PreparedBy,
		MaxDays:    s.cfg.Report.MaxDays,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := rep.Write(&buf); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if err := s.reports.Record(r.Context(), core.NewReportRecord(r.Context(), id, rep, state)); err != nil {
		logger.Error("record report", "report_id", rep.ID, "error", err)
	}

	logger.Info("report generated",
		"session_id", id,
		"report_id", rep.ID,
		"schema", rep.Schema.Key,
		"format", string(rep.Format),
		"output", string(rep.Output),
		"entries", rep.EntryCount,
		"sections", len(rep.Sections),
	)

	w.Header().Set("Content-Type", rep.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+rep.FileName()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) recentReports(r *http.Request) ([]core.ReportRecord, error) {
	limit := s.cfg.Report.LogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	return s.reports.Recent(r.Context(), limit)
}

func (s *Server) handleReportLog(w http.ResponseWriter, r *http.Request) {
	records, err := s.recentReports(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []core.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": records})
}

func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	records, err := s.recentReports(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderComponent(w, r, templates.ReportsPage(records))
}
