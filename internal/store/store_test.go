package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/lox/tempcast/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := New(db, zaptest.NewLogger(t).Sugar())
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
}

func TestInsertAndGetRuns(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []models.ForecastRun{
		{
			RequestedAt:   base,
			StartYear:     2025,
			StartMonth:    1,
			HorizonMonths: 12,
			Status:        "ok",
			DurationMS:    3,
			FirstForecast: sql.NullFloat64{Float64: 22.41, Valid: true},
			LastForecast:  sql.NullFloat64{Float64: 21.9, Valid: true},
		},
		{
			RequestedAt:   base.Add(time.Minute),
			StartYear:     1900,
			StartMonth:    1,
			HorizonMonths: 3,
			Source:        "api",
			Status:        "error",
			Error:         sql.NullString{String: "date is before the first observation", Valid: true},
		},
	}
	for _, r := range runs {
		id, err := store.InsertForecastRun(r)
		if err != nil {
			t.Fatalf("InsertForecastRun: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero id")
		}
	}

	got, err := store.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("GetRecentRuns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(got))
	}
	if got[0].Status != "error" || got[0].Source != "api" {
		t.Errorf("newest run = %+v, want the api error", got[0])
	}
	if !got[0].Error.Valid || got[0].Error.String != "date is before the first observation" {
		t.Errorf("Error = %+v", got[0].Error)
	}
	if got[1].Source != "form" {
		t.Errorf("default Source = %q, want form", got[1].Source)
	}
	if !got[1].RequestedAt.Equal(base) {
		t.Errorf("RequestedAt = %v, want %v", got[1].RequestedAt, base)
	}
	if got[1].FirstForecast.Float64 != 22.41 {
		t.Errorf("FirstForecast = %v, want 22.41", got[1].FirstForecast.Float64)
	}

	limited, err := store.GetRecentRuns(1)
	if err != nil {
		t.Fatalf("GetRecentRuns(1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}

	stats, err := store.GetRunStats()
	if err != nil {
		t.Fatalf("GetRunStats: %v", err)
	}
	if stats.Total != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want total 2 failed 1", stats)
	}
}

func TestGetRunStats_Empty(t *testing.T) {
	store := setupTestStore(t)

	stats, err := store.GetRunStats()
	if err != nil {
		t.Fatalf("GetRunStats: %v", err)
	}
	if stats.Total != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, db, err := Open(path, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := store.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
