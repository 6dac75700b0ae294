package core

// report_log.go records which reports were generated, with what filters.
//
// Only request metadata is stored; tables and filter state are never
// persisted. MemoryReportLog is used when no database is configured.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultReportLogLimit caps Recent results when no limit is given.
const DefaultReportLogLimit = 50

// ReportRecord is one generated report.
type ReportRecord struct {
	ID         string              `json:"id"`
	SessionID  string              `json:"sessionId"`
	FileName   string              `json:"fileName"`
	Schema     string              `json:"schema"`
	Format     string              `json:"format"`
	Selections map[string][]string `json:"selections,omitempty"`
	EntryCount int                 `json:"entryCount"`
	IPAddress  string              `json:"ipAddress,omitempty"`
	UserAgent  string              `json:"userAgent,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// Client identifies who asked for a report. The web server attaches it to
// each request; terminal tools leave it empty.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// WithClient returns ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the client attached by WithClient, if any.
func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// NewReportRecord describes rep for the log. Client details come from ctx.
func NewReportRecord(ctx context.Context, sessionID string, rep *Report, state *FilterState) ReportRecord {
	selections := make(map[string][]string)
	for _, f := range CategoryFields {
		if vals := state.Selection(f); len(vals) > 0 {
			selections[string(f)] = vals
		}
	}
	client := ClientFrom(ctx)
	return ReportRecord{
		ID:         rep.ID,
		SessionID:  sessionID,
		FileName:   rep.FileName(),
		Schema:     rep.Schema.Key,
		Format:     string(rep.Format),
		Selections: selections,
		EntryCount: rep.EntryCount,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
		CreatedAt:  rep.GeneratedAt,
	}
}

// ReportLog stores report records.
type ReportLog interface {
	Record(ctx context.Context, rec ReportRecord) error
	Recent(ctx context.Context, limit int) ([]ReportRecord, error)
}

// MemoryReportLog keeps the most recent records in memory.
type MemoryReportLog struct {
	mu      sync.Mutex
	max     int
	records []ReportRecord
}

// NewMemoryReportLog keeps at most max records (DefaultReportLogLimit if <= 0).
func NewMemoryReportLog(max int) *MemoryReportLog {
	if max <= 0 {
		max = DefaultReportLogLimit
	}
	return &MemoryReportLog{max: max}
}

func (m *MemoryReportLog) Record(_ context.Context, rec ReportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	if over := len(m.records) - m.max; over > 0 {
		m.records = append([]ReportRecord(nil), m.records[over:]...)
	}
	return nil
}

// Recent returns records newest first.
func (m *MemoryReportLog) Recent(_ context.Context, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = DefaultReportLogLimit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ReportRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

const reportLogSchema = `
CREATE TABLE IF NOT EXISTS report_log (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	schema_key  TEXT NOT NULL,
	format      TEXT NOT NULL,
	selections  JSONB,
	entry_count INTEGER NOT NULL,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
)`

// PGReportLog stores records in PostgreSQL.
type PGReportLog struct {
	pool *pgxpool.Pool
}

// NewPGReportLog ensures the report_log table exists.
func NewPGReportLog(ctx context.Context, pool *pgxpool.Pool) (*PGReportLog, error) {
	if _, err := pool.Exec(ctx, reportLogSchema); err != nil {
		return nil, fmt.Errorf("create report_log: %w", err)
	}
	return &PGReportLog{pool: pool}, nil
}

func (p *PGReportLog) Record(ctx context.Context, rec ReportRecord) error {
	selections, err := json.Marshal(rec.Selections)
	if err != nil {
		return fmt.Errorf("encode selections: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO report_log
			(id, session_id, file_name, schema_key, format, selections, entry_count, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.SessionID, rec.FileName, rec.Schema, rec.Format,
		selections, rec.EntryCount, nullIfEmpty(rec.IPAddress), nullIfEmpty(rec.UserAgent), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report_log: %w", err)
	}
	return nil
}

// Recent returns records newest first.
func (p *PGReportLog) Recent(ctx context.Context, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = DefaultReportLogLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, session_id, file_name, schema_key, format, selections,
		       entry_count, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM report_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query report_log: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReportRecord, error) {
		var rec ReportRecord
		var selections []byte
		if err := row.Scan(&rec.ID, &rec.SessionID, &rec.FileName, &rec.Schema, &rec.Format,
			&selections, &rec.EntryCount, &rec.IPAddress, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return rec, err
		}
		if len(selections) > 0 {
			if err := json.Unmarshal(selections, &rec.Selections); err != nil {
				return rec, fmt.Errorf("decode selections: %w", err)
			}
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan report_log: %w", err)
	}
	return records, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
