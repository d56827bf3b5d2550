package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteTopicPreservesSpacesInFilename(t *testing.T) {
	s := New(t.TempDir())
	if err := s.EnsureVersionDir("14"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	if err := s.WriteTopic("14", "ALTER TABLE", "help text"); err != nil {
		t.Fatalf("write topic: %v", err)
	}

	path := filepath.Join(s.Root(), "postgres_14", "ALTER TABLE.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "help text" {
		t.Errorf("content = %q, want %q", data, "help text")
	}
}

func TestWriteTopicOverwrites(t *testing.T) {
	s := New(t.TempDir())
	if err := s.EnsureVersionDir("14"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	if err := s.WriteTopic("14", "COPY", "old"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.WriteTopic("14", "COPY", "new"); err != nil {
		t.Fatalf("second write: %v", err)
	}

	topics, err := s.Topics("14")
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if topics["COPY"] != "new" {
		t.Errorf("content = %q, want %q", topics["COPY"], "new")
	}
}

func TestWriteTopicRejectsPathEscapes(t *testing.T) {
	s := New(t.TempDir())
	if err := s.EnsureVersionDir("14"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	for _, topic := range []string{"", ".", "..", "a/b", `a\b`, "../escape"} {
		if err := s.WriteTopic("14", topic, "x"); err == nil {
			t.Errorf("WriteTopic(%q) succeeded, want error", topic)
		}
	}
}

func TestEnsureVersionDirIdempotent(t *testing.T) {
	s := New(t.TempDir())
	for range 2 {
		if err := s.EnsureVersionDir("10"); err != nil {
			t.Fatalf("ensure dir: %v", err)
		}
	}
}

func TestTopicsReadsAllFiles(t *testing.T) {
	s := New(t.TempDir())
	if err := s.EnsureVersionDir("15"); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	want := map[string]string{
		"ABORT":        "abort help",
		"ALTER TABLE":  "alter help",
		"CREATE TABLE": "create help",
	}
	for topic, text := range want {
		if err := s.WriteTopic("15", topic, text); err != nil {
			t.Fatalf("write %q: %v", topic, err)
		}
	}

	got, err := s.Topics("15")
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Topics = %v, want %v", got, want)
	}
}

func TestVersionsSortedNumerically(t *testing.T) {
	s := New(t.TempDir())
	for _, v := range []string{"14", "9.6", "10"} {
		if err := s.EnsureVersionDir(v); err != nil {
			t.Fatalf("ensure dir: %v", err)
		}
	}
	// Non-matching directories are ignored.
	if err := os.Mkdir(filepath.Join(s.Root(), "scratch"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := s.Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	want := []string{"9.6", "10", "14"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Versions = %v, want %v", got, want)
	}
}

func TestVersionsMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	got, err := s.Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Versions = %v, want empty", got)
	}
}
