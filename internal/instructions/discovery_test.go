package instructions

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverOrdersGlobalThenTopDown(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	work := filepath.Join(root, "a", "b")

	writeFile(t, filepath.Join(home, GlobalFilename), "global\n")
	writeFile(t, filepath.Join(root, ProjectDocFilename), "root doc")
	writeFile(t, filepath.Join(root, "a", ProjectDocFilename), "a doc")
	writeFile(t, filepath.Join(root, "a", ProjectOverrideFilename), "a override")
	writeFile(t, filepath.Join(work, ProjectDocFilename), "   ")

	got := Discover(home, work)
	want := "global\n\nroot doc\n\na override"
	if got != want {
		t.Fatalf("Discover() = %q, want %q", got, want)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	if got := Discover(t.TempDir(), t.TempDir()); got != "" {
		t.Fatalf("expected empty instructions, got %q", got)
	}
}

func TestCompose(t *testing.T) {
	cases := []struct{ base, extra, want string }{
		{"base", "", "base"},
		{"", "extra", "extra"},
		{" base ", " extra ", "base\n\nextra"},
	}
	for _, tc := range cases {
		if got := Compose(tc.base, tc.extra); got != tc.want {
			t.Errorf("Compose(%q, %q) = %q, want %q", tc.base, tc.extra, got, tc.want)
		}
	}
}
