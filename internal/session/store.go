package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"search-chat/internal/agent"

	"github.com/google/uuid"
)

// ErrNotFound 表示指定会话不存在。
var ErrNotFound = errors.New("session not found")

// ErrInvalidID 表示会话 id 不能作为存储键。
var ErrInvalidID = errors.New("invalid session id")

// Record 是一个会话的持久化快照。
type Record struct {
	ID       string          `json:"id"`
	Model    string          `json:"model,omitempty"`
	Messages []agent.Message `json:"messages"`
	Created  time.Time       `json:"created"`
	Updated  time.Time       `json:"updated"`
}

// Store persists conversations keyed by session id.
type Store interface {
	Load(id string) (Record, error)
	Save(rec Record) (string, error)
	List() ([]Record, error)
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Last returns the most recently updated session in store.
func Last(store Store) (Record, error) {
	records, err := store.List()
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	return records[0], nil
}

// Preview returns the first user message of rec, used when listing sessions.
func (r Record) Preview() string {
	for _, msg := range r.Messages {
		if msg.Role == agent.RoleUser {
			return strings.TrimSpace(msg.Content)
		}
	}
	return ""
}

func prepare(rec Record, now time.Time) Record {
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = NewID()
	}
	if rec.Created.IsZero() {
		rec.Created = now
	}
	rec.Updated = now
	if rec.Messages == nil {
		rec.Messages = []agent.Message{}
	}
	return rec
}

func sortByUpdated(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Updated.After(records[j].Updated)
	})
}

func cloneMessages(msgs []agent.Message) []agent.Message {
	out := make([]agent.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out
}

// ValidID reports whether id can key a stored session in every backend:
// non-empty, no surrounding whitespace, no path separators.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." || id != strings.TrimSpace(id) {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// CheckID returns ErrInvalidID when id cannot key a stored session.
func CheckID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}
