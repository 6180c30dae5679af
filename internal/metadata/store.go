// Package metadata introspects the relational store at startup and exposes
// per-table text summaries used as LLM context.
package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/harvestiq/harvestiq/internal/config"
	"github.com/harvestiq/harvestiq/internal/store"
)

const sampleRowLimit = 5

// yearColumnAliases are checked literally, in order, against table columns.
var yearColumnAliases = []string{"Crop_Year", "crop_year", "Year", "year"}

var metricTerms = []string{"production", "rainfall", "area", "yield", "fertilizer", "pesticide"}

// TableMetadata holds schema, sample rows and derived hints for one table.
// Built once during Initialize and immutable afterwards.
type TableMetadata struct {
	Name       string
	Columns    []string
	SampleRows []map[string]interface{}
	MinYear    *int
	MaxYear    *int
	Description string
	// KeyColumns maps a semantic role (state/crop/year/metrics) to the
	// matching column names. Heuristic; it only shapes LLM prompt hints.
	KeyColumns map[string][]string
}

// Store owns the table metadata cache. Safe for concurrent reads after
// Initialize; never mutated afterwards.
type Store struct {
	dbPath  string
	sources map[string]config.Source
	tables  map[string]*TableMetadata

	mu        sync.RWMutex
	summaries map[string]string
	sf        singleflight.Group
}

func New(dbPath string, sources map[string]config.Source) *Store {
	return &Store{
		dbPath:    dbPath,
		sources:   sources,
		tables:    make(map[string]*TableMetadata),
		summaries: make(map[string]string),
	}
}

// Initialize introspects every declared table. Introspection failure leaves
// the store with zero tables; downstream context builders tolerate that.
func (s *Store) Initialize(ctx context.Context) {
	db, err := store.Open(s.dbPath)
	if err != nil {
		log.Error().Err(err).Str("db", s.dbPath).Msg("metadata initialization failed")
		return
	}
	defer db.Close()

	for name, src := range s.sources {
		meta, err := s.introspect(ctx, db, name, src)
		if err != nil {
			log.Error().Err(err).Str("table", name).Msg("metadata initialization failed")
			s.tables = make(map[string]*TableMetadata)
			return
		}
		s.tables[name] = meta
	}
	log.Info().Int("tables", len(s.tables)).Msg("metadata initialized")
}

func (s *Store) introspect(ctx context.Context, db *store.DB, name string, src config.Source) (*TableMetadata, error) {
	columns, err := db.TableColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found", name)
	}

	samples, err := db.SampleRows(ctx, name, sampleRowLimit)
	if err != nil {
		return nil, err
	}

	var minYear, maxYear *int
	yearCol := findYearColumn(columns)
	if yearCol == "" {
		log.Warn().Str("table", name).Msg("no year column found")
	} else {
		minYear, maxYear, err = db.YearRange(ctx, name, yearCol)
		if err != nil {
			return nil, err
		}
	}

	return &TableMetadata{
		Name:        name,
		Columns:     columns,
		SampleRows:  samples,
		MinYear:     minYear,
		MaxYear:     maxYear,
		Description: src.Description,
		KeyColumns:  detectKeyColumns(columns),
	}, nil
}

func findYearColumn(columns []string) string {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	for _, alias := range yearColumnAliases {
		if set[alias] {
			return alias
		}
	}
	return ""
}

// detectKeyColumns classifies columns by lowercase substring match against a
// fixed vocabulary. Crop requires an exact match so that crop_year does not
// register as a crop column.
func detectKeyColumns(columns []string) map[string][]string {
	key := map[string][]string{
		"state":   {},
		"crop":    {},
		"year":    {},
		"metrics": {},
	}
	for _, c := range columns {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "state") {
			key["state"] = append(key["state"], c)
		}
		if lower == "crop" {
			key["crop"] = append(key["crop"], c)
		}
		if strings.Contains(lower, "year") {
			key["year"] = append(key["year"], c)
		}
		for _, m := range metricTerms {
			if strings.Contains(lower, m) {
				key["metrics"] = append(key["metrics"], c)
				break
			}
		}
	}
	return key
}

// Table returns the metadata for one table, or nil when unknown.
func (s *Store) Table(name string) *TableMetadata {
	return s.tables[name]
}

// Tables returns the registered table names, sorted for stable output.
func (s *Store) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Source returns the configured source descriptor for a table.
func (s *Store) Source(name string) config.Source {
	return s.sources[name]
}

// RelevantTables selects tables for a question. Single-table deployments
// degenerate to all registered tables; no ranking occurs.
func (s *Store) RelevantTables(question string) []string {
	return s.Tables()
}

// TableSummary formats the fixed-shape text block fed to the LLM. Summaries
// are built lazily and cached; singleflight collapses concurrent builds of
// the same table during the first requests after startup.
func (s *Store) TableSummary(name string) string {
	s.mu.RLock()
	if sum, ok := s.summaries[name]; ok {
		s.mu.RUnlock()
		return sum
	}
	s.mu.RUnlock()

	v, _, _ := s.sf.Do(name, func() (interface{}, error) {
		meta, ok := s.tables[name]
		if !ok {
			return "", nil
		}
		sum := buildSummary(meta)
		s.mu.Lock()
		s.summaries[name] = sum
		s.mu.Unlock()
		return sum, nil
	})
	return v.(string)
}

func buildSummary(meta *TableMetadata) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nTable: %s\n", meta.Name)
	fmt.Fprintf(&sb, "Description: %s\n", meta.Description)
	fmt.Fprintf(&sb, "Date Range: %s-%s\n", formatYear(meta.MinYear), formatYear(meta.MaxYear))
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(meta.Columns, ", "))
	fmt.Fprintf(&sb, "Key Entities: States=%v, Metrics=%v\n",
		meta.KeyColumns["state"], meta.KeyColumns["metrics"])
	sb.WriteString("Sample Data:\n")
	sb.WriteString(renderRows(meta.Columns, meta.SampleRows))
	return sb.String()
}

func formatYear(y *int) string {
	if y == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *y)
}

func renderRows(columns []string, rows []map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, " | "))
	sb.WriteString("\n")
	for _, row := range rows {
		vals := make([]string, len(columns))
		for i, c := range columns {
			vals[i] = fmt.Sprint(row[c])
		}
		sb.WriteString(strings.Join(vals, " | "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// CaseRules describes the observed casing of categorical key columns so the
// planner can tell the model to emit placeholders instead of case-matched
// literals.
func (s *Store) CaseRules(name string) string {
	meta, ok := s.tables[name]
	if !ok {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nCASE SENSITIVITY RULES for %s:\n", name)
	if len(meta.SampleRows) == 0 {
		return sb.String()
	}

	if cols := meta.KeyColumns["state"]; len(cols) > 0 {
		writeCaseRule(&sb, "State", cols[0], meta.SampleRows)
	}
	if cols := meta.KeyColumns["crop"]; len(cols) > 0 {
		writeCaseRule(&sb, "Crop", cols[0], meta.SampleRows)
	}
	return sb.String()
}

func writeCaseRule(sb *strings.Builder, label, col string, rows []map[string]interface{}) {
	values := distinctValues(rows, col, 3)
	fmt.Fprintf(sb, "- %s values are Title Case: %v\n", label, values)
	fmt.Fprintf(sb, "  -> Use parameterized: WHERE %s = ? with Title Case param\n", col)
}

func distinctValues(rows []map[string]interface{}, col string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		str := fmt.Sprint(v)
		if seen[str] {
			continue
		}
		seen[str] = true
		out = append(out, str)
		if len(out) == limit {
			break
		}
	}
	return out
}
