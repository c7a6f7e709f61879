package session

import (
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Save(rec Record) (string, error) {
	if rec.ID != "" {
		if err := CheckID(rec.ID); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[rec.ID]; ok && rec.Created.IsZero() {
		rec.Created = prev.Created
	}
	rec = prepare(rec, time.Now())
	rec.Messages = cloneMessages(rec.Messages)
	s.records[rec.ID] = rec
	return rec.ID, nil
}

func (s *MemoryStore) Load(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Messages = cloneMessages(rec.Messages)
	return rec, nil
}

func (s *MemoryStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Messages = cloneMessages(rec.Messages)
		out = append(out, rec)
	}
	sortByUpdated(out)
	return out, nil
}
