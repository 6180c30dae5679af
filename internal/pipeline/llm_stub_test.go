package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/harvestiq/harvestiq/internal/config"
	"github.com/harvestiq/harvestiq/internal/metadata"
)

// fakeLLM scripts one response (or error) per CompleteJSON call, in order,
// and records the prompts it saw.
type fakeLLM struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, system, prompt string, temperature float64) (json.RawMessage, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return json.RawMessage(f.responses[i]), nil
	}
	return nil, errors.New("fakeLLM: unscripted call")
}

func testSources() map[string]config.Source {
	return map[string]config.Source{
		"crop_yield": {
			URL:         "N/A (Uploaded from crop_yield.csv)",
			File:        "crop_yield.csv",
			Description: "Crop production data for India",
		},
	}
}

// seedDB creates a throwaway SQLite file with a small crop_yield table.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crop_yield.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE crop_yield (
		Crop TEXT, Crop_Year INTEGER, Season TEXT, State TEXT,
		Area REAL, Production REAL, Annual_Rainfall REAL,
		Fertilizer REAL, Pesticide REAL, Yield REAL)`)
	require.NoError(t, err)

	rows := [][]interface{}{
		{"Wheat", 2014, "Rabi", "Punjab", 100.0, 500.0, 600.0, 10.0, 1.0, 5.0},
		{"Wheat", 2014, "Rabi", "Uttar Pradesh", 120.0, 450.0, 800.0, 12.0, 1.2, 3.75},
		{"Rice", 2014, "Kharif", "Assam", 80.0, 200.0, 2000.0, 8.0, 0.8, 2.5},
		{"Wheat", 2015, "Rabi", "Punjab", 105.0, 520.0, 580.0, 10.5, 1.0, 4.95},
		{"Rice", 2016, "Kharif", "Odisha", 90.0, 240.0, 1500.0, 9.0, 0.9, 2.67},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO crop_yield VALUES (?,?,?,?,?,?,?,?,?,?)`, r...)
		require.NoError(t, err)
	}
	return path
}

func newTestMeta(t *testing.T, dbPath string) *metadata.Store {
	t.Helper()
	meta := metadata.New(dbPath, testSources())
	meta.Initialize(context.Background())
	require.Len(t, meta.Tables(), 1, "seeded table must be introspected")
	return meta
}
