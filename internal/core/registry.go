package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSchema is returned when a report names an unregistered schema.
var ErrUnknownSchema = errors.New("unknown report schema")

// Report column names understood by the report writer.
const (
	ColDay          = "Day"
	ColTotal        = "Total Duration"
	ColDuration     = "Duration"
	ColProject      = "Project"
	ColProjects     = "Projects"
	ColDescription  = "Description"
	ColDescriptions = "Descriptions"
	ColBillable     = "Billable Status"
)

// ReportSchema describes one report layout.
type ReportSchema struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
	ShowDetails bool     `json:"showDetails"`
	// ByProject groups each user's lines by project before day.
	ByProject bool `json:"byProject"`
}

// DefaultSchema is used when a request does not name one.
const DefaultSchema = "classic"

var (
	schemas   = make(map[string]ReportSchema)
	schemasMu sync.RWMutex
)

func init() {
	RegisterSchema(ReportSchema{
		Key:         "classic",
		Name:        "Classic Report",
		Description: "Traditional timesheet format with daily breakdown",
		Columns:     []string{ColDay, ColTotal, ColProjects},
		ShowDetails: true,
	})
	RegisterSchema(ReportSchema{
		Key:         "minimalist",
		Name:        "Minimalist Report",
		Description: "Clean and simple format focusing on totals",
		Columns:     []string{ColDay, ColTotal},
	})
	RegisterSchema(ReportSchema{
		Key:         "detailed",
		Name:        "Detailed Report",
		Description: "Comprehensive report with all information",
		Columns:     []string{ColDay, ColTotal, ColProjects, ColDescriptions, ColBillable},
		ShowDetails: true,
	})
	RegisterSchema(ReportSchema{
		Key:         "project_focused",
		Name:        "Project-Focused Report",
		Description: "Organized by projects first",
		Columns:     []string{ColProject, ColDay, ColDuration, ColDescription},
		ShowDetails: true,
		ByProject:   true,
	})
}

// RegisterSchema adds a report schema.
// Panics if a schema with the same key is already registered.
func RegisterSchema(s ReportSchema) {
	schemasMu.Lock()
	defer schemasMu.Unlock()

	if _, exists := schemas[s.Key]; exists {
		panic(fmt.Sprintf("report schema already registered: %s", s.Key))
	}
	schemas[s.Key] = s
}

// LookupSchema returns a schema by key. An empty key selects DefaultSchema.
func LookupSchema(key string) (ReportSchema, error) {
	if key == "" {
		key = DefaultSchema
	}

	schemasMu.RLock()
	defer schemasMu.RUnlock()

	s, ok := schemas[key]
	if !ok {
		return ReportSchema{}, fmt.Errorf("%w: %s", ErrUnknownSchema, key)
	}
	return s, nil
}

// Schemas returns every registered schema sorted by key.
func Schemas() []ReportSchema {
	schemasMu.RLock()
	defer schemasMu.RUnlock()

	result := make([]ReportSchema, 0, len(schemas))
	for _, s := range schemas {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}
