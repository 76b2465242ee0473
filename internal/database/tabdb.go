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

	"github.com/nao1215/privacylens/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "privacylens.db"

// TabDB stores the latest analysis report of each browser tab.
type TabDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures TabDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the tab database in dbDir.
func Open(dbDir string, opts Options) (*TabDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	tdb := &TabDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := tdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return tdb, nil
}

// Path returns the database file path.
func (t *TabDB) Path() string {
	return t.dbPath
}

// Close closes the database connection.
func (t *TabDB) Close() error {
	return t.db.Close()
}

func (t *TabDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tab_reports (
		tab_id INTEGER PRIMARY KEY,
		url TEXT NOT NULL,
		analyzed_at TEXT NOT NULL,
		score INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := t.db.ExecContext(context.Background(), schema)
	return err
}

// Put stores report as the current report of tabID, replacing any earlier
// one.
func (t *TabDB) Put(ctx context.Context, tabID int, report *model.AnalysisReport) error {
	if report == nil {
		return errors.New("nil report")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO tab_reports (tab_id, url, analyzed_at, score, report_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(tab_id) DO UPDATE SET
		url = excluded.url,
		analyzed_at = excluded.analyzed_at,
		score = excluded.score,
		report_json = excluded.report_json,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err = t.db.ExecContext(ctx, query,
		tabID,
		report.URL,
		report.Timestamp.UTC().Format(time.RFC3339Nano),
		model.Score(report),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store report for tab %d: %w", tabID, err)
	}
	return nil
}

// Get returns the current report of tabID, or nil when there is none.
func (t *TabDB) Get(ctx context.Context, tabID int) (*model.AnalysisReport, error) {
	var data string
	err := t.db.QueryRowContext(ctx,
		`SELECT report_json FROM tab_reports WHERE tab_id = ?`, tabID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report for tab %d: %w", tabID, err)
	}

	report := &model.AnalysisReport{}
	if err := json.Unmarshal([]byte(data), report); err != nil {
		return nil, fmt.Errorf("failed to parse report for tab %d: %w", tabID, err)
	}
	return report.Clone(), nil
}

// Delete removes the report of tabID. Deleting an unknown tab is not an
// error.
func (t *TabDB) Delete(ctx context.Context, tabID int) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM tab_reports WHERE tab_id = ?`, tabID); err != nil {
		return fmt.Errorf("failed to delete report for tab %d: %w", tabID, err)
	}
	return nil
}

// Clear removes every stored report. Tab ids do not survive a browser
// restart, so the host clears the table when it starts.
func (t *TabDB) Clear(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM tab_reports`); err != nil {
		return fmt.Errorf("failed to clear tab reports: %w", err)
	}
	return nil
}

// TabSummary is one row of List.
type TabSummary struct {
	TabID      int
	URL        string
	Score      int
	AnalyzedAt time.Time
}

// List returns a summary of every stored tab ordered by tab id.
func (t *TabDB) List(ctx context.Context) ([]TabSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT tab_id, url, score, analyzed_at FROM tab_reports ORDER BY tab_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tab reports: %w", err)
	}
	defer rows.Close()

	var out []TabSummary
	for rows.Next() {
		var (
			s  TabSummary
			ts string
		)
		if err := rows.Scan(&s.TabID, &s.URL, &s.Score, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan tab report: %w", err)
		}
		s.AnalyzedAt = parseTimestamp(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
