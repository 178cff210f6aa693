package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/lox/tempcast/internal/models"
)

// Store is the forecast history log.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func New(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log}
}

// Open opens (or creates) the SQLite database at path and applies migrations.
func Open(path string, log *zap.SugaredLogger) (*Store, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	s := New(db, log)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return s, db, nil
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) InsertForecastRun(run models.ForecastRun) (int64, error) {
	source := run.Source
	if source == "" {
		source = "form"
	}
	res, err := s.db.Exec(`
		INSERT INTO forecast_runs (requested_at, start_year, start_month, horizon_months, source, status, error, duration_ms, first_forecast, last_forecast)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RequestedAt.UTC(), run.StartYear, run.StartMonth, run.HorizonMonths, source, run.Status, run.Error, run.DurationMS, run.FirstForecast, run.LastForecast)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRecentRuns returns up to limit runs, newest first.
func (s *Store) GetRecentRuns(limit int) ([]models.ForecastRun, error) {
	rows, err := s.db.Query(`
		SELECT id, requested_at, start_year, start_month, horizon_months, source, status, error, duration_ms, first_forecast, last_forecast
		FROM forecast_runs
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ForecastRun
	for rows.Next() {
		var r models.ForecastRun
		if err := rows.Scan(&r.ID, &r.RequestedAt, &r.StartYear, &r.StartMonth, &r.HorizonMonths, &r.Source, &r.Status, &r.Error, &r.DurationMS, &r.FirstForecast, &r.LastForecast); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type RunStats struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

func (s *Store) GetRunStats() (RunStats, error) {
	var st RunStats
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		FROM forecast_runs
	`).Scan(&st.Total, &st.Failed)
	return st, err
}
