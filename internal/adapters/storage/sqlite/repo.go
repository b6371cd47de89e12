package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/skillroute/internal/backend"
	"github.com/hylla/skillroute/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores backend state in one sqlite database.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating parent directories and schema as needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers inside this process.
	db.SetMaxOpenConns(1)
	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a shared in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// applyPragmas makes writers from other processes wait instead of failing.
func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			profile_json TEXT NOT NULL DEFAULT '{}',
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS roadmaps (
			user_id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			roadmap_json TEXT NOT NULL,
			completed_phase_count INTEGER NOT NULL DEFAULT 0,
			total_phases INTEGER NOT NULL DEFAULT 0,
			streak_days INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT,
			career_json TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS gap_analyses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			resume_name TEXT NOT NULL DEFAULT '',
			hours_per_week INTEGER NOT NULL DEFAULT 10,
			match_percentage REAL NOT NULL DEFAULT 0,
			analysis_json TEXT NOT NULL,
			analyzed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_gap_analyses_user_analyzed ON gap_analyses(user_id, analyzed_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// GetProfile returns the profile of userID.
func (r *Repository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT profile_json FROM profiles WHERE user_id = ?`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, backend.ErrNotFound
		}
		return domain.Profile{}, err
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile_json: %w", err)
	}
	return p, nil
}

// SaveProfile inserts or replaces the profile of userID.
func (r *Repository) SaveProfile(ctx context.Context, userID string, p domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles(user_id, profile_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET profile_json = excluded.profile_json, updated_at = excluded.updated_at
	`, userID, string(raw), ts(time.Now()))
	return err
}

// GetRoadmap returns the active roadmap of userID.
func (r *Repository) GetRoadmap(ctx context.Context, userID string) (backend.StoredRoadmap, error) {
	return getRoadmap(ctx, r.db, userID)
}

// SaveRoadmap inserts or replaces the active roadmap of userID.
func (r *Repository) SaveRoadmap(ctx context.Context, userID string, stored backend.StoredRoadmap) error {
	return saveRoadmap(ctx, r.db, userID, stored)
}

// UpdateRoadmap reads the active roadmap of userID, applies fn, and writes the
// result back in one transaction. An error from fn aborts the write.
func (r *Repository) UpdateRoadmap(ctx context.Context, userID string, fn func(*backend.StoredRoadmap) error) (backend.StoredRoadmap, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.StoredRoadmap{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stored, err := getRoadmap(ctx, tx, userID)
	if err != nil {
		return backend.StoredRoadmap{}, err
	}
	if err = fn(&stored); err != nil {
		return backend.StoredRoadmap{}, err
	}
	if err = saveRoadmap(ctx, tx, userID, stored); err != nil {
		return backend.StoredRoadmap{}, err
	}
	if err = tx.Commit(); err != nil {
		return backend.StoredRoadmap{}, fmt.Errorf("commit roadmap update: %w", err)
	}
	return stored, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRoadmap(ctx context.Context, q queryer, userID string) (backend.StoredRoadmap, error) {
	row := q.QueryRowContext(ctx, `
		SELECT roadmap_json, completed_phase_count, total_phases, streak_days, last_activity_date, career_json, created_at, updated_at
		FROM roadmaps
		WHERE user_id = ?
	`, userID)
	return scanRoadmap(row)
}

func saveRoadmap(ctx context.Context, q queryer, userID string, stored backend.StoredRoadmap) error {
	roadmapJSON, err := json.Marshal(stored.Roadmap)
	if err != nil {
		return fmt.Errorf("encode roadmap: %w", err)
	}
	var careerJSON any
	if stored.CareerDecision != nil {
		raw, err := json.Marshal(stored.CareerDecision)
		if err != nil {
			return fmt.Errorf("encode career decision: %w", err)
		}
		careerJSON = string(raw)
	}
	p := stored.Progress
	_, err = q.ExecContext(ctx, `
		INSERT INTO roadmaps(user_id, title, roadmap_json, completed_phase_count, total_phases, streak_days, last_activity_date, career_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			title = excluded.title,
			roadmap_json = excluded.roadmap_json,
			completed_phase_count = excluded.completed_phase_count,
			total_phases = excluded.total_phases,
			streak_days = excluded.streak_days,
			last_activity_date = excluded.last_activity_date,
			career_json = excluded.career_json,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, userID, stored.Roadmap.Title, string(roadmapJSON), p.CompletedPhaseCount, p.TotalPhases, p.StreakDays,
		nullableTS(p.LastActivityDate), careerJSON, ts(stored.CreatedAt), ts(stored.UpdatedAt))
	return err
}

// DeleteRoadmap removes the active roadmap of userID.
func (r *Repository) DeleteRoadmap(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roadmaps WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CreateGapAnalysis stores one gap analysis.
func (r *Repository) CreateGapAnalysis(ctx context.Context, rec backend.GapRecord) error {
	raw, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("encode gap analysis: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO gap_analyses(id, user_id, resume_name, hours_per_week, match_percentage, analysis_json, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.ResumeName, rec.HoursPerWeek, rec.Analysis.MatchPercentage, string(raw), ts(rec.AnalyzedAt))
	return err
}

// ListGapAnalyses lists up to limit analyses of userID, newest first.
func (r *Repository) ListGapAnalyses(ctx context.Context, userID string, limit int) ([]backend.GapRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, resume_name, hours_per_week, analysis_json, analyzed_at
		FROM gap_analyses
		WHERE user_id = ?
		ORDER BY analyzed_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []backend.GapRecord{}
	for rows.Next() {
		var (
			rec         backend.GapRecord
			analysisRaw string
			analyzedRaw string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ResumeName, &rec.HoursPerWeek, &analysisRaw, &analyzedRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(analysisRaw), &rec.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis_json: %w", err)
		}
		rec.Analysis.ID = rec.ID
		rec.AnalyzedAt = parseTS(analyzedRaw)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanner abstracts row scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRoadmap(s scanner) (backend.StoredRoadmap, error) {
	var (
		out         backend.StoredRoadmap
		roadmapRaw  string
		lastRaw     sql.NullString
		careerRaw   sql.NullString
		createdRaw  string
		updatedRaw  string
		progressRec domain.ProgressRecord
	)
	if err := s.Scan(&roadmapRaw, &progressRec.CompletedPhaseCount, &progressRec.TotalPhases, &progressRec.StreakDays, &lastRaw, &careerRaw, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return backend.StoredRoadmap{}, backend.ErrNotFound
		}
		return backend.StoredRoadmap{}, err
	}
	if err := json.Unmarshal([]byte(roadmapRaw), &out.Roadmap); err != nil {
		return backend.StoredRoadmap{}, fmt.Errorf("decode roadmap_json: %w", err)
	}
	if careerRaw.Valid && strings.TrimSpace(careerRaw.String) != "" {
		out.CareerDecision = &domain.CareerDecision{}
		if err := json.Unmarshal([]byte(careerRaw.String), out.CareerDecision); err != nil {
			return backend.StoredRoadmap{}, fmt.Errorf("decode career_json: %w", err)
		}
	}
	progressRec.LastActivityDate = parseNullTS(lastRaw)
	out.Progress = progressRec
	out.CreatedAt = parseTS(createdRaw)
	out.UpdatedAt = parseTS(updatedRaw)
	return out, nil
}

// translateNoRows maps zero affected rows to backend.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
