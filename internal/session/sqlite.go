package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"search-chat/internal/agent"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	model    TEXT NOT NULL DEFAULT '',
	messages TEXT NOT NULL,
	created  INTEGER NOT NULL,
	updated  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated ON sessions(updated);
`

// SQLiteStore 将每个会话保存为一行，消息以 JSON 文本存储。
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite 的 :memory: 库按连接隔离，只保留一个连接。
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(rec Record) (string, error) {
	if rec.ID != "" {
		if err := CheckID(rec.ID); err != nil {
			return "", err
		}
	}
	if rec.Created.IsZero() && rec.ID != "" {
		if prev, err := s.Load(rec.ID); err == nil {
			rec.Created = prev.Created
		}
	}
	rec = prepare(rec, time.Now())
	data, err := json.Marshal(rec.Messages)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(`
INSERT INTO sessions (id, model, messages, created, updated) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET model = excluded.model, messages = excluded.messages, updated = excluded.updated`,
		rec.ID, rec.Model, string(data), rec.Created.UnixNano(), rec.Updated.UnixNano())
	if err != nil {
		return "", fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

func (s *SQLiteStore) Load(id string) (Record, error) {
	row := s.db.QueryRow(`SELECT id, model, messages, created, updated FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *SQLiteStore) List() ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, model, messages, created, updated FROM sessions ORDER BY updated DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		raw      string
		created  int64
		updated  int64
		messages []agent.Message
	)
	if err := row.Scan(&rec.ID, &rec.Model, &raw, &created, &updated); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", rec.ID, err)
	}
	rec.Messages = messages
	rec.Created = time.Unix(0, created)
	rec.Updated = time.Unix(0, updated)
	return rec, nil
}
