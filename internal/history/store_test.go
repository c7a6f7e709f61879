package history

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestStoreAppendAndLoadTexts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.jsonl")
	s := &Store{Path: path}

	if got, err := s.LoadTexts(0); err != nil || len(got) != 0 {
		t.Fatalf("LoadTexts on missing file: got=%v err=%v", got, err)
	}
	if err := s.Append("s1", "   "); err != nil {
		t.Fatalf("Append whitespace: %v", err)
	}
	for _, text := range []string{"one", "two", "two", "three"} {
		if err := s.Append("s1", text); err != nil {
			t.Fatalf("Append %s: %v", text, err)
		}
	}

	got, err := s.LoadTexts(0)
	if err != nil {
		t.Fatalf("LoadTexts: %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadTexts = %v, want %v", got, want)
	}

	got, err = s.LoadTexts(2)
	if err != nil {
		t.Fatalf("LoadTexts(2): %v", err)
	}
	if want := []string{"two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadTexts(2) = %v, want %v", got, want)
	}
}

func TestStoreSkipsGarbageLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join([]string{
		`{"text":"one","ts":"2025-01-01T00:00:00Z"}`,
		`{not json}`,
		`{"text":"","ts":"2025-01-01T00:00:00Z"}`,
		`{"text":"two","session":"s1","ts":"2025-01-01T00:00:00Z"}`,
		"",
	}, "\n")), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := (&Store{Path: path}).LoadTexts(0)
	if err != nil {
		t.Fatalf("LoadTexts: %v", err)
	}
	if want := []string{"one", "two"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadTexts = %v, want %v", got, want)
	}
}

func TestStoreErrors(t *testing.T) {
	t.Parallel()

	var s *Store
	if err := s.Append("s1", "x"); err == nil {
		t.Fatalf("Append on nil store expected error")
	}
	if _, err := s.LoadTexts(0); err == nil {
		t.Fatalf("LoadTexts on nil store expected error")
	}
	empty := &Store{}
	if err := empty.Append("s1", "x"); err == nil {
		t.Fatalf("Append with empty path expected error")
	}
	if _, err := empty.LoadTexts(0); err == nil {
		t.Fatalf("LoadTexts with empty path expected error")
	}
}
