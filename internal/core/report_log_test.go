package core

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestMemoryReportLog(t *testing.T) {
	log := NewMemoryReportLog(3)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		if err := log.Record(ctx, ReportRecord{ID: id}); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	got, err := log.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if want := []string{"r4", "r3", "r2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Recent = %v, want %v", ids, want)
	}

	got, _ = log.Recent(ctx, 1)
	if len(got) != 1 || got[0].ID != "r4" {
		t.Errorf("Recent(1) = %+v", got)
	}
}

func TestNewReportRecord(t *testing.T) {
	state := NewFilterState(testHeader)
	state.SetCategorySelection(FieldUser, []string{"u1", "u2"})

	rep := &Report{
		ID:          "rep-1",
		Schema:      ReportSchema{Key: "classic"},
		Format:      FormatHours,
		Output:      OutputCSV,
		EntryCount:  7,
		GeneratedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}

	ctx := WithClient(context.Background(), Client{IP: "10.0.0.1", UserAgent: "curl/8"})

	rec := NewReportRecord(ctx, "sess-1", rep, state)
	want := ReportRecord{
		ID:         "rep-1",
		SessionID:  "sess-1",
		FileName:   "Report_20250304_050607.csv",
		Schema:     "classic",
		Format:     "hours",
		Selections: map[string][]string{"User": {"u1", "u2"}},
		EntryCount: 7,
		IPAddress:  "10.0.0.1",
		UserAgent:  "curl/8",
		CreatedAt:  rep.GeneratedAt,
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("NewReportRecord = %+v\nwant %+v", rec, want)
	}
}

func TestClientFromEmptyContext(t *testing.T) {
	if c := ClientFrom(context.Background()); c != (Client{}) {
		t.Errorf("ClientFrom(background) = %+v, want zero", c)
	}
}
