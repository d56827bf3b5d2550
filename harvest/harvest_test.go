package harvest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pghelp/store"
)

// fakeRuntime records calls and returns configured responses per version.
type fakeRuntime struct {
	provisionErr map[string]error
	listing      map[string]string
	listErr      map[string]error
	helpErr      map[string]error
	removeErr    map[string]error

	calls []string
}

func (f *fakeRuntime) Provision(_ context.Context, version string) error {
	f.calls = append(f.calls, "Provision "+version)
	return f.provisionErr[version]
}

func (f *fakeRuntime) ListHelp(_ context.Context, version string) (string, error) {
	f.calls = append(f.calls, "ListHelp "+version)
	return f.listing[version], f.listErr[version]
}

func (f *fakeRuntime) TopicHelp(_ context.Context, version, topic string) (string, error) {
	f.calls = append(f.calls, "TopicHelp "+version+" "+topic)
	if err := f.helpErr[version]; err != nil {
		return "psql: error\n", err
	}
	return "help for " + topic + "\n", nil
}

func (f *fakeRuntime) Remove(_ context.Context, version string) error {
	f.calls = append(f.calls, "Remove "+version)
	return f.removeErr[version]
}

func (f *fakeRuntime) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if c == prefix {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	results []Result
}

func (f *fakeRecorder) RecordVersion(_ context.Context, r Result) error {
	f.results = append(f.results, r)
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	rt := &fakeRuntime{
		listing: map[string]string{
			"14": "  ALTER TABLE   COPY  \nAvailable help:\n",
		},
	}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"14"}).Run(context.Background())

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
	if results[0].Topics != 2 {
		t.Errorf("topics = %d, want 2", results[0].Topics)
	}
	if results[0].Status() != "ok" {
		t.Errorf("status = %q, want ok", results[0].Status())
	}

	for _, name := range []string{"ALTER TABLE.txt", "COPY.txt"} {
		path := filepath.Join(st.Root(), "postgres_14", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file %s: %v", path, err)
		}
	}
}

func TestRunOutputDirExistsPerVersion(t *testing.T) {
	versions := []string{"9.6", "10"}
	rt := &fakeRuntime{listing: map[string]string{
		"9.6": "ABORT",
		"10":  "ABORT",
	}}
	st := store.New(t.TempDir())

	New(rt, st, versions).Run(context.Background())

	for _, v := range versions {
		if _, err := os.Stat(st.VersionDir(v)); err != nil {
			t.Errorf("expected version dir for %s: %v", v, err)
		}
	}
}

func TestRemoveRunsForEveryVersionDespiteFailures(t *testing.T) {
	rt := &fakeRuntime{
		provisionErr: map[string]error{"10": errors.New("name collision")},
		listErr:      map[string]error{"11": errors.New("instance gone")},
		listing:      map[string]string{"14": "COPY"},
		removeErr:    map[string]error{"14": errors.New("daemon hiccup")},
	}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"10", "11", "14"}).Run(context.Background())

	for _, v := range []string{"10", "11", "14"} {
		if got := rt.count("Remove " + v); got != 1 {
			t.Errorf("Remove %s called %d times, want 1", v, got)
		}
	}

	if results[0].Err == nil || results[1].Err == nil {
		t.Error("expected errors for versions 10 and 11")
	}
	if results[2].Err != nil {
		t.Errorf("version 14 should succeed, got %v", results[2].Err)
	}
}

func TestFailedListingYieldsZeroFiles(t *testing.T) {
	rt := &fakeRuntime{
		listErr: map[string]error{"12": errors.New("connection refused")},
	}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"12"}).Run(context.Background())

	if results[0].Err == nil {
		t.Fatal("expected listing error")
	}
	if results[0].Topics != 0 {
		t.Errorf("topics = %d, want 0", results[0].Topics)
	}
	if _, err := os.Stat(st.VersionDir("12")); !os.IsNotExist(err) {
		t.Errorf("no version dir should exist after failed listing, stat err = %v", err)
	}
}

func TestFailedTopicQueryStillWritesOutput(t *testing.T) {
	rt := &fakeRuntime{
		listing: map[string]string{"13": "ABORT"},
		helpErr: map[string]error{"13": errors.New("exit code 2")},
	}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"13"}).Run(context.Background())

	if results[0].Err != nil {
		t.Fatalf("topic failures must not be fatal: %v", results[0].Err)
	}
	if !results[0].Partial {
		t.Error("expected partial result")
	}
	if results[0].Status() != "partial" {
		t.Errorf("status = %q, want partial", results[0].Status())
	}

	data, err := os.ReadFile(filepath.Join(st.VersionDir("13"), "ABORT.txt"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "psql: error\n" {
		t.Errorf("file content = %q, want client output verbatim", data)
	}
}

func TestUnsafeTopicSkipped(t *testing.T) {
	rt := &fakeRuntime{
		listing: map[string]string{"14": "../evil  COPY"},
	}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"14"}).Run(context.Background())

	if results[0].Topics != 1 {
		t.Errorf("topics = %d, want 1 (unsafe name skipped)", results[0].Topics)
	}
	if !results[0].Partial {
		t.Error("expected partial result when a topic is skipped")
	}
	if rt.count("TopicHelp 14 ../evil") != 0 {
		t.Error("unsafe topic must not be queried")
	}
}

func TestRerunOverwrites(t *testing.T) {
	st := store.New(t.TempDir())

	first := &fakeRuntime{listing: map[string]string{"14": "COPY  DELETE"}}
	New(first, st, []string{"14"}).Run(context.Background())

	// Second run lists a smaller topic set; stale files stay behind.
	second := &fakeRuntime{listing: map[string]string{"14": "COPY"}}
	results := New(second, st, []string{"14"}).Run(context.Background())

	if results[0].Err != nil {
		t.Fatalf("rerun failed: %v", results[0].Err)
	}
	for _, name := range []string{"COPY.txt", "DELETE.txt"} {
		if _, err := os.Stat(filepath.Join(st.VersionDir("14"), name)); err != nil {
			t.Errorf("expected file %s after rerun: %v", name, err)
		}
	}
}

func TestCancelledRunStillReaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rt := &fakeRuntime{listing: map[string]string{"14": "COPY"}}
	st := store.New(t.TempDir())

	results := New(rt, st, []string{"14", "15"}).Run(ctx)

	for _, r := range results {
		if r.Err == nil {
			t.Errorf("version %s should report cancellation", r.Version)
		}
	}
	for _, v := range []string{"14", "15"} {
		if got := rt.count("Remove " + v); got != 1 {
			t.Errorf("Remove %s called %d times, want 1", v, got)
		}
	}
}

func TestRecorderSeesEveryVersion(t *testing.T) {
	rt := &fakeRuntime{
		provisionErr: map[string]error{"10": errors.New("boom")},
		listing:      map[string]string{"14": "COPY"},
	}
	st := store.New(t.TempDir())
	rec := &fakeRecorder{}

	New(rt, st, []string{"10", "14"}, WithRecorder(rec)).Run(context.Background())

	if len(rec.results) != 2 {
		t.Fatalf("recorded %d results, want 2", len(rec.results))
	}
	if rec.results[0].Status() != "failed" || rec.results[1].Status() != "ok" {
		t.Errorf("statuses = %q, %q; want failed, ok",
			rec.results[0].Status(), rec.results[1].Status())
	}
}

func TestSequentialOrder(t *testing.T) {
	rt := &fakeRuntime{listing: map[string]string{
		"9.6": "ABORT",
		"10":  "ABORT",
	}}
	st := store.New(t.TempDir())

	New(rt, st, []string{"9.6", "10"}).Run(context.Background())

	want := []string{
		"Provision 9.6",
		"Provision 10",
		"ListHelp 9.6",
		"TopicHelp 9.6 ABORT",
		"ListHelp 10",
		"TopicHelp 10 ABORT",
		"Remove 9.6",
		"Remove 10",
	}
	if fmt.Sprint(rt.calls) != fmt.Sprint(want) {
		t.Errorf("call order = %v, want %v", rt.calls, want)
	}
}
