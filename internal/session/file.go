package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileStore 以 <dir>/<id>.json 的形式保存会话。
type FileStore struct {
	Dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("session dir is empty")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

func (s *FileStore) Save(rec Record) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}
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
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	tmp := s.path(rec.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, s.path(rec.ID)); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *FileStore) Load(id string) (Record, error) {
	var rec Record
	if !ValidID(id) {
		return rec, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

// List returns all readable sessions, most recently updated first.
func (s *FileStore) List() ([]Record, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := s.Load(trimExt(e.Name()))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	sortByUpdated(records)
	return records, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
