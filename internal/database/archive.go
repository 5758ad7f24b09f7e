package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/crawler"
)

// FileName is the archive file created inside the data directory.
const FileName = "linkgraph.db"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Archive stores finished runs and their visited URLs.
type Archive struct {
	db     *sql.DB
	dbPath string
}

// Options configures Archive behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive in dbDir.
func Open(dbDir string, opts Options) (*Archive, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return a, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.dbPath
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		mode TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		error TEXT,
		stats TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS visits (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		found_at TEXT NOT NULL,
		depth INTEGER NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_visits_run ON visits(run_id);
	`
	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata summarizes one archived run without its visits.
type RunMetadata struct {
	ID          int64         `json:"id"`
	Seed        string        `json:"seed"`
	Mode        config.Mode   `json:"mode"`
	MaxDepth    int           `json:"max_depth"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	RecordCount int           `json:"record_count"`
	Error       string        `json:"error,omitempty"`
	Stats       crawler.Stats `json:"stats"`
}

// SaveRun archives result and its records in one transaction and returns
// the run id. A failed run is archived with its error.
func (a *Archive) SaveRun(ctx context.Context, result *crawler.Result) (int64, error) {
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize stats: %w", err)
	}
	var runErr sql.NullString
	if result.Err != nil {
		runErr = sql.NullString{String: result.Err.Error(), Valid: true}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, mode, max_depth, started_at, finished_at, record_count, error, stats)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Seed,
		string(result.Mode),
		result.MaxDepth,
		result.StartedAt.UTC().Format(timeLayout),
		result.FinishedAt.UTC().Format(timeLayout),
		len(result.Records),
		runErr,
		string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO visits (run_id, url, found_at, depth) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare visit insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range result.Records {
		if _, err := stmt.ExecContext(ctx, runID, rec.URL, rec.FoundAt, rec.Depth); err != nil {
			return 0, fmt.Errorf("failed to insert visit %s: %w", rec.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `id, seed, mode, max_depth, started_at, finished_at, record_count, error, stats`

// ListRuns returns archived runs, newest first. An empty seed lists every run.
func (a *Archive) ListRuns(ctx context.Context, seed string) ([]RunMetadata, error) {
	return a.queryRuns(ctx, seed, -1)
}

// LatestRuns returns at most n runs of seed, newest first.
func (a *Archive) LatestRuns(ctx context.Context, seed string, n int) ([]RunMetadata, error) {
	return a.queryRuns(ctx, seed, n)
}

func (a *Archive) queryRuns(ctx context.Context, seed string, limit int) ([]RunMetadata, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := make([]any, 0, 2)
	if seed != "" {
		query += " AND seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, rows.Err()
}

// GetRun returns one run, or ErrRunNotFound.
func (a *Archive) GetRun(ctx context.Context, id int64) (*RunMetadata, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return meta, err
}

// GetRunVisits returns the records of a run ordered by depth then URL.
func (a *Archive) GetRunVisits(ctx context.Context, runID int64) ([]crawler.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
	SELECT url, found_at, depth FROM visits
	WHERE run_id = ?
	ORDER BY depth, url`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get visits: %w", err)
	}
	defer rows.Close()

	var records []crawler.Record
	for rows.Next() {
		var rec crawler.Record
		if err := rows.Scan(&rec.URL, &rec.FoundAt, &rec.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListSeeds returns every archived seed URL.
func (a *Archive) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT seed FROM runs ORDER BY seed`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, s)
	}
	return seeds, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunMetadata, error) {
	var (
		meta              RunMetadata
		mode              string
		started, finished string
		runErr, statsJSON sql.NullString
	)
	err := s.Scan(
		&meta.ID,
		&meta.Seed,
		&mode,
		&meta.MaxDepth,
		&started,
		&finished,
		&meta.RecordCount,
		&runErr,
		&statsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	meta.Mode = config.Mode(mode)
	meta.StartedAt = parseTimestamp(started)
	meta.FinishedAt = parseTimestamp(finished)
	meta.Error = runErr.String
	if statsJSON.Valid && statsJSON.String != "" {
		// Unparsable stats leave the zero value; the run itself is still usable.
		_ = json.Unmarshal([]byte(statsJSON.String), &meta.Stats) //nolint:errcheck
	}
	return &meta, nil
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
