package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/core"
)

const timesheetCSV = "Project,Client,User,Start Date,Duration (h),Description,Billable\n" +
	"A,X,alice,06/01/2025,01:00:00,Design,Yes\n" +
	"B,Y,alice,07/01/2025,00:30:00,Review,No\n" +
	"A,X,bob,06/01/2025,02:00:00,Support,Yes\n"

type previewJSON struct {
	State         string     `json:"state"`
	Header        []string   `json:"header"`
	Rows          [][]string `json:"rows"`
	ShownCount    int        `json:"shownCount"`
	FilteredCount int        `json:"filteredCount"`
	TotalCount    int        `json:"totalCount"`
}

type sessionJSON struct {
	SessionID      string              `json:"sessionId"`
	FileName       string              `json:"fileName"`
	TotalRows      int                 `json:"totalRows"`
	Columns        []string            `json:"columns"`
	ActiveColumns  []string            `json:"activeColumns"`
	DistinctValues map[string][]string `json:"distinctValues"`
	Selections     map[string][]string `json:"selections"`
	Preview        previewJSON         `json:"preview"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20},
		Preview: config.PreviewConfig{MaxRows: 2, SessionTTL: time.Hour, SweepInterval: time.Minute},
		Report: config.ReportConfig{
			Timeout:       5 * time.Second,
			MaxConcurrent: 1,
			MaxWaitTime:   20 * time.Millisecond,
			MaxDays:       31,
			LogLimit:      10,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return NewServer(cfg, core.NewSessionStore(cfg.Preview.MaxRows, cfg.Preview.SessionTTL), nil)
}

func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		part, err := mw.CreateFormFile("csv_file", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionJSON {
	t.Helper()
	var got sessionJSON
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode session: %v (body %q)", err, rec.Body.String())
	}
	return got
}

func createSession(t *testing.T, s *Server, content string) sessionJSON {
	t.Helper()
	rec := serve(s, uploadRequest(t, "week.csv", content))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeSession(t, rec)
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{`name="csv_file"`, "No data to preview", `id="errors"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
}

func TestCreateSessionJSON(t *testing.T) {
	s := newTestServer(t, nil)
	got := createSession(t, s, timesheetCSV)

	if got.SessionID == "" || got.FileName != "week.csv" {
		t.Errorf("session = %q/%q", got.SessionID, got.FileName)
	}
	if got.TotalRows != 3 || len(got.Columns) != 7 || len(got.ActiveColumns) != 7 {
		t.Errorf("rows/columns/active = %d/%d/%d", got.TotalRows, len(got.Columns), len(got.ActiveColumns))
	}
	if p := got.Preview; p.State != "rendered" || p.ShownCount != 2 || p.FilteredCount != 3 || p.TotalCount != 3 {
		t.Errorf("preview = %+v", p)
	}
	if vals := got.DistinctValues["Project"]; len(vals) != 2 {
		t.Errorf("distinct projects = %v", vals)
	}
}

func TestCreateSessionHTMX(t *testing.T) {
	s := newTestServer(t, nil)
	req := uploadRequest(t, "week.csv", timesheetCSV)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("HX-Push-Url"), "/sessions/") {
		t.Errorf("HX-Push-Url = %q", rec.Header().Get("HX-Push-Url"))
	}
	body := rec.Body.String()
	for _, want := range []string{`id="workspace"`, `id="preview"`, "Showing 2 of 3 filtered rows (3 total)"} {
		if !strings.Contains(body, want) {
			t.Errorf("workspace missing %q", want)
		}
	}
}

func TestCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		maxSize  int64
		wantCode int
		wantErr  string
	}{
		{
			name:     "no file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "", "") },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "empty.csv", "") },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE005",
		},
		{
			name:     "too large",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "big.csv", strings.Repeat("a,b\n", 2048)) },
			maxSize:  512,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.maxSize > 0 {
				cfg.Upload.MaxFileSize = tt.maxSize
			}
			s := newTestServer(t, cfg)
			rec := serve(s, tt.req(t))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if code := errorCode(t, rec); code != tt.wantErr {
				t.Errorf("code = %q, want %q", code, tt.wantErr)
			}
			if s.sessions.Len() != 0 {
				t.Error("failed upload must not create a session")
			}
		})
	}
}

func TestSessionMutationsJSON(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID
	base := "/api/sessions/" + id

	rec := serve(s, jsonRequest(http.MethodPost, base+"/filters/project", `{"values":["A"]}`))
	got := decodeSession(t, rec)
	if got.Preview.FilteredCount != 2 || got.Selections["Project"][0] != "A" {
		t.Errorf("after filter: %+v", got)
	}

	rec = serve(s, jsonRequest(http.MethodPost, base+"/columns", `{"columns":[]}`))
	got = decodeSession(t, rec)
	if got.Preview.State != "empty_columns" || len(got.ActiveColumns) != 0 {
		t.Errorf("after clearing columns: %+v", got.Preview)
	}

	rec = serve(s, jsonRequest(http.MethodPost, base+"/columns/toggle", `{"column":"User"}`))
	got = decodeSession(t, rec)
	if got.Preview.State != "rendered" || len(got.Preview.Header) != 1 || got.Preview.Header[0] != "User" {
		t.Errorf("after toggle: %+v", got.Preview)
	}
	if got.Preview.FilteredCount != 2 {
		t.Errorf("column changes must not change the filtered rows: %d", got.Preview.FilteredCount)
	}

	rec = serve(s, jsonRequest(http.MethodDelete, base+"/filters", ""))
	got = decodeSession(t, rec)
	if got.Preview.FilteredCount != 3 || len(got.Selections) != 0 {
		t.Errorf("after clear: %+v", got)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/preview", nil))
	if got = decodeSession(t, rec); got.Preview.ShownCount != 2 {
		t.Errorf("preview = %+v", got.Preview)
	}
}

func TestSessionMutationsForm(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	form := url.Values{"selected_columns[]": {"Project", "User"}}
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/columns", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	body := rec.Body.String()
	if !strings.Contains(body, "<th>Project</th><th>User</th>") || strings.Contains(body, "<th>Client</th>") {
		t.Errorf("preview fragment = %s", body)
	}

	form = url.Values{"values[]": {"", "B"}}
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/filters/Project", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec = serve(s, req)
	if !strings.Contains(rec.Body.String(), "Showing 1 of 1 filtered rows (3 total)") {
		t.Errorf("filtered fragment = %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id+"/filters", nil)
	req.Header.Set("HX-Request", "true")
	rec = serve(s, req)
	if !strings.Contains(rec.Body.String(), `id="workspace"`) {
		t.Errorf("clear should return the workspace: %s", rec.Body.String())
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantErr  string
	}{
		{"unknown session", httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil), http.StatusNotFound, "SES001"},
		{"unknown field", jsonRequest(http.MethodPost, "/api/sessions/"+id+"/filters/Task", `{"values":["x"]}`), http.StatusBadRequest, "SES003"},
		{"unknown schema", jsonRequest(http.MethodPost, "/api/sessions/"+id+"/report", `{"schema":"fancy"}`), http.StatusBadRequest, "RPT002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if code := errorCode(t, rec); code != tt.wantErr {
				t.Errorf("code = %q, want %q", code, tt.wantErr)
			}
		})
	}
}

func TestHTMXErrorFragment(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing/preview", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	if rec.Code != http.StatusNotFound || rec.Header().Get("HX-Retarget") != "#errors" {
		t.Errorf("status/retarget = %d/%q", rec.Code, rec.Header().Get("HX-Retarget"))
	}
	if !strings.Contains(rec.Body.String(), "Code: SES001") {
		t.Errorf("fragment = %s", rec.Body.String())
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	rec := serve(s, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d", rec.Code)
	}
}

func TestSessionPage(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "week.csv") || !strings.Contains(body, `name="schema"`) || !strings.Contains(body, `name="output"`) {
		t.Errorf("session page = %s", body)
	}
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	form := url.Values{"schema": {"classic"}, "formatSelect": {"hours"}, "prepared_by": {"=Pat"}, "output": {"csv"}}
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/report", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Report_`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	for _, want := range []string{"Timesheet Report", "Name,'=Pat", "User,alice", "TOTAL,1:30", "User,bob", "TOTAL,2:00"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q:\n%s", want, body)
		}
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	var log struct {
		Reports []core.ReportRecord `json:"reports"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&log); err != nil {
		t.Fatal(err)
	}
	if len(log.Reports) != 1 || log.Reports[0].SessionID != id || log.Reports[0].EntryCount != 3 {
		t.Errorf("report log = %+v", log.Reports)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/reports", nil))
	if !strings.Contains(rec.Body.String(), "classic") {
		t.Errorf("reports page = %s", rec.Body.String())
	}
}

func TestReportDownloadWorkbook(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	rec := serve(s, jsonRequest(http.MethodPost, "/api/sessions/"+id+"/report", `{"schema":"minimalist"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `.xlsx"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Report")
	if err != nil {
		t.Fatal(err)
	}
	var users []string
	for _, row := range rows {
		if len(row) > 0 && strings.HasPrefix(row[0], "User: ") {
			users = append(users, row[0])
		}
	}
	if strings.Join(users, "|") != "User: alice|User: bob" {
		t.Errorf("user blocks = %v", users)
	}
}

func TestReportPeriodTooLong(t *testing.T) {
	s := newTestServer(t, nil)
	csv := "Project,Client,User,Start Date,Duration (h)\n" +
		"A,X,u,01/01/0001,01:00:00\n" +
		"A,X,u,31/12/9999,01:00:00\n"
	id := createSession(t, s, csv).SessionID

	rec := serve(s, jsonRequest(http.MethodPost, "/api/sessions/"+id+"/report", `{"schema":"minimalist"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RPT005" {
		t.Errorf("code = %q", code)
	}
}

func TestReportMissingColumns(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, "Project,User\nA,u1\n").SessionID

	rec := serve(s, jsonRequest(http.MethodPost, "/api/sessions/"+id+"/report", `{}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RPT001" {
		t.Errorf("code = %q", code)
	}
}

func TestReportBusy(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s, timesheetCSV).SessionID

	if !s.limiter.TryAcquire() {
		t.Fatal("limiter should have a free slot")
	}
	defer s.limiter.Release()

	rec := serve(s, jsonRequest(http.MethodPost, "/api/sessions/"+id+"/report", `{}`))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RPT003" {
		t.Errorf("code = %q", code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec = serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d", rec.Code)
	}
}

func TestRateLimitedResponse(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, UploadLimit: 1}
	s := newTestServer(t, cfg)

	serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RATE001" {
		t.Errorf("code = %q", code)
	}
}
