package store

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

	_ "modernc.org/sqlite"
)

const sessionFileName = "session.sqlite"

// Session is the explorer state restored on the next launch against the same
// server. It is best effort: callers should tolerate missing data.
type Session struct {
	Server string

	// Expanded are the urls of the open folders, outermost first.
	Expanded []string
	// Active is the url of the open script.
	Active string

	// DraftURL and DraftContent hold unsaved text of the open script.
	DraftURL     string
	DraftContent string

	UpdatedAt time.Time
}

func SessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFileName), nil
}

func openSQLite(ctx context.Context) (*sql.DB, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The CLI and the TUI may open the db at the same time.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			server TEXT PRIMARY KEY,
			expanded_json TEXT NOT NULL,
			active TEXT NOT NULL,
			draft_url TEXT NOT NULL DEFAULT '',
			draft_content TEXT NOT NULL DEFAULT '',
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate session db: %w", err)
		}
	}
	return nil
}

// LoadSession returns the saved session for server, or an empty one.
func LoadSession(ctx context.Context, server string) (*Session, error) {
	server = strings.TrimSpace(server)
	out := &Session{Server: server}
	db, err := openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var expandedJSON string
	var updated int64
	err = db.QueryRowContext(ctx,
		`SELECT expanded_json, active, draft_url, draft_content, updated_at_unixms FROM sessions WHERE server = ?`,
		server,
	).Scan(&expandedJSON, &out.Active, &out.DraftURL, &out.DraftContent, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	// A damaged list only loses the expanded folders.
	_ = json.Unmarshal([]byte(expandedJSON), &out.Expanded)
	out.UpdatedAt = time.UnixMilli(updated).UTC()
	return out, nil
}

func SaveSession(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	db, err := openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	expanded := s.Expanded
	if expanded == nil {
		expanded = []string{}
	}
	b, err := json.Marshal(expanded)
	if err != nil {
		return err
	}
	now := s.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (server, expanded_json, active, draft_url, draft_content, updated_at_unixms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			expanded_json = excluded.expanded_json,
			active = excluded.active,
			draft_url = excluded.draft_url,
			draft_content = excluded.draft_content,
			updated_at_unixms = excluded.updated_at_unixms`,
		strings.TrimSpace(s.Server), string(b), s.Active, s.DraftURL, s.DraftContent, now.UnixMilli(),
	)
	return err
}

func DeleteSession(ctx context.Context, server string) error {
	db, err := openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, strings.TrimSpace(server))
	return err
}
