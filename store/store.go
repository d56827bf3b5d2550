// Package store persists harvested help documents as a flat file tree:
// one directory per server version, one text file per help topic.
//
// Layout: <root>/postgres_<version>/<topic>.txt. Topic names are used
// verbatim as filenames (psql topics contain only letters and spaces),
// so a directory is self-describing without an index file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	dirPrefix  = "postgres_"
	fileSuffix = ".txt"
)

// Store reads and writes the help-file tree rooted at a single directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the tree root.
func (s *Store) Root() string {
	return s.root
}

// DirName returns the per-version directory name, e.g. "postgres_14".
func DirName(version string) string {
	return dirPrefix + version
}

// VersionDir returns the absolute directory for a version.
func (s *Store) VersionDir(version string) string {
	return filepath.Join(s.root, DirName(version))
}

// EnsureVersionDir creates the per-version directory if absent.
// A pre-existing directory is not an error.
func (s *Store) EnsureVersionDir(version string) error {
	if err := os.MkdirAll(s.VersionDir(version), 0o755); err != nil {
		return fmt.Errorf("create version dir: %w", err)
	}
	return nil
}

// WriteTopic writes text verbatim to the topic's file, overwriting any
// previous content. The topic becomes the filename as-is (spaces
// preserved); topics that would escape the version directory are
// rejected.
func (s *Store) WriteTopic(version, topic, text string) error {
	if !SafeTopic(topic) {
		return fmt.Errorf("topic %q is not a valid filename", topic)
	}
	path := filepath.Join(s.VersionDir(version), topic+fileSuffix)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write topic %q: %w", topic, err)
	}
	return nil
}

// SafeTopic reports whether a topic can be used directly as a filename
// inside the version directory. Topics never legitimately contain path
// separators; anything else goes through unmodified.
func SafeTopic(topic string) bool {
	if topic == "" || topic == "." || topic == ".." {
		return false
	}
	return !strings.ContainsAny(topic, `/\`)
}

// Topics reads every help document for a version into a topic → text map.
func (s *Store) Topics(version string) (map[string]string, error) {
	dir := s.VersionDir(version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read version dir: %w", err)
	}

	topics := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read topic file: %w", err)
		}
		topics[strings.TrimSuffix(e.Name(), fileSuffix)] = string(data)
	}
	return topics, nil
}

// Versions lists harvested versions, sorted numerically so that 9.6
// precedes 10. Directories not matching the postgres_ prefix are ignored.
func (s *Store) Versions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store root: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), dirPrefix) {
			versions = append(versions, strings.TrimPrefix(e.Name(), dirPrefix))
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versionOrd(versions[i]) < versionOrd(versions[j])
	})
	return versions, nil
}

func versionOrd(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
