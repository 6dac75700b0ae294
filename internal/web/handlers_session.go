package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/web/templates"
)

// sessionResponse is the JSON view of a session.
type sessionResponse struct {
	SessionID      string               `json:"sessionId"`
	FileName       string               `json:"fileName"`
	TotalRows      int                  `json:"totalRows"`
	Columns        []string             `json:"columns"`
	ActiveColumns  []string             `json:"activeColumns"`
	DistinctValues map[string][]string  `json:"distinctValues"`
	Selections     map[string][]string  `json:"selections,omitempty"`
	Preview        core.RenderedPreview `json:"preview"`
}

func newSessionResponse(sess *core.Session) sessionResponse {
	resp := sessionResponse{
		SessionID:      sess.ID,
		FileName:       sess.FileName,
		Columns:        []string{},
		ActiveColumns:  []string{},
		DistinctValues: map[string][]string{},
		Preview:        sess.Preview(),
	}

	model, ok := sess.Model()
	if !ok {
		return resp
	}

	state := sess.State()
	resp.TotalRows = model.TotalRows()
	resp.Columns = model.Columns
	resp.ActiveColumns = state.ActiveColumns()
	for f, vals := range model.DistinctValues {
		resp.DistinctValues[string(f)] = vals
	}
	for _, f := range core.CategoryFields {
		if sel := state.Selection(f); len(sel) > 0 {
			if resp.Selections == nil {
				resp.Selections = make(map[string][]string)
			}
			resp.Selections[string(f)] = sel
		}
	}
	return resp
}

// snapshot captures what a response needs while the session is locked.
type snapshot struct {
	json sessionResponse
	view templates.SessionView
}

func (s *Server) snapshot(id string) (snapshot, error) {
	var snap snapshot
	err := s.sessions.View(id, func(sess *core.Session) error {
		snap.json = newSessionResponse(sess)
		snap.view = templates.NewSessionView(sess)
		return nil
	})
	return snap, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"reports":  s.limiter.Status(),
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.HomePage(s.cfg.Upload.MaxFileSize).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render home", "error", err)
	}
}

func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.SessionPage(s.cfg.Upload.MaxFileSize, snap.view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render session", "error", err)
	}
}

// handleCreateSession parses an uploaded CSV into a new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		err = fmt.Errorf("read file: %w", err)
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.respondError(w, r, err, status)
		return
	}

	file, header, err := r.FormFile("csv_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = core.ErrNoFile
		}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	table, err := core.ParseCSV(file)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sess := s.sessions.Create()
	if _, err := s.sessions.Dispatch(sess.ID, core.FileLoaded{Name: header.Filename, Table: table}); err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("file loaded",
		"session_id", sess.ID,
		"file", header.Filename,
		"size", header.Size,
		"rows", table.Len(),
		"columns", len(table.Columns()),
	)

	snap, err := s.snapshot(sess.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		w.Header().Set("HX-Push-Url", "/sessions/"+sess.ID)
		s.renderComponent(w, r, templates.Workspace(snap.view))
	case wantsJSON(r):
		writeJSON(w, http.StatusCreated, snap.json)
	default:
		http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
	}
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSession(w, r, snap, false)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.sessions.Delete(id)
	slog.Debug("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Column string `json:"column"`
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if isJSONBody(r) {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.Column = r.FormValue("column")
	}
	s.dispatch(w, r, core.ColumnToggled{Column: req.Column}, false)
}

type columnsRequest struct {
	Columns []string `json:"columns"`
}

func (s *Server) handleSetColumns(w http.ResponseWriter, r *http.Request) {
	var req columnsRequest
	if isJSONBody(r) {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.Columns = formValues(r, "selected_columns")
	}
	s.dispatch(w, r, core.ColumnsSet{Columns: req.Columns}, false)
}

type filterRequest struct {
	Values []string `json:"values"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "field")
	field, ok := core.ParseCategoryField(name)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %q", core.ErrUnknownField, name))
		return
	}

	var req filterRequest
	if isJSONBody(r) {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.Values = formValues(r, "values")
	}
	s.dispatch(w, r, core.CategoryFilterChanged{Field: field, Values: req.Values}, false)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, core.FiltersCleared{}, true)
}

// dispatch applies msg to the session named in the URL and answers with
// the preview fragment, or the whole workspace when workspace is set.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, msg core.Msg, workspace bool) {
	id := chi.URLParam(r, "id")

	var snap snapshot
	err := s.sessions.View(id, func(sess *core.Session) error {
		if !sess.Loaded() {
			return core.ErrNoData
		}
		sess.Update(msg)
		snap.json = newSessionResponse(sess)
		snap.view = templates.NewSessionView(sess)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Debug("session updated",
		"session_id", id,
		"msg", fmt.Sprintf("%T", msg),
		"state", snap.json.Preview.State.String(),
	)
	s.respondSession(w, r, snap, workspace)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, snap snapshot, workspace bool) {
	if isHTMX(r) || !wantsJSON(r) {
		if workspace {
			s.renderComponent(w, r, templates.Workspace(snap.view))
			return
		}
		s.renderComponent(w, r, templates.PreviewFragment(snap.view.Preview))
		return
	}
	writeJSON(w, http.StatusOK, snap.json)
}

func (s *Server) renderComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render component", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
