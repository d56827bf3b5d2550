// Package harvest runs the help-extraction pipeline: provision one
// disposable server per configured version, pull the help-topic listing
// and every per-topic help text out of it, and tear everything down.
//
// The pipeline is strictly sequential. Versions are processed in list
// order and nothing overlaps; the only shared resource is the container
// runtime, accessed serially.
package harvest

import (
	"context"
	"fmt"
	"log/slog"

	"pghelp/store"
)

// Pipeline wires the runtime, the help-file store, and an optional run
// recorder. One Pipeline value describes one full run.
type Pipeline struct {
	runtime  Runtime
	store    *store.Store
	recorder Recorder
	versions []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder attaches a run-history recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a Pipeline over the given versions, in order.
func New(rt Runtime, st *store.Store, versions []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		runtime:  rt,
		store:    st,
		versions: versions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome for one version.
type Result struct {
	Version string

	// Topics is the number of help documents written.
	Topics int

	// Partial is set when at least one topic query failed or was skipped
	// but the version was otherwise processed.
	Partial bool

	// Err is the fatal per-version error, if any. A version with Err set
	// was still torn down.
	Err error
}

// Status summarizes a Result as "ok", "partial", or "failed".
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Partial:
		return "partial"
	default:
		return "ok"
	}
}

// Run executes the three stages: provision every version, extract help
// from each provisioned instance, then remove every instance. Teardown
// is attempted for every configured version regardless of earlier
// failures, including cancellation mid-run.
func (p *Pipeline) Run(ctx context.Context) []Result {
	results := make([]Result, len(p.versions))
	for i, v := range p.versions {
		results[i].Version = v
	}

	defer p.reapAll(ctx)

	// Stage 1: provision.
	for i, v := range p.versions {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		slog.Info("Provisioning instance.", "version", v)
		if err := p.runtime.Provision(ctx, v); err != nil {
			slog.Error("Provision failed.", "version", v, "err", err)
			results[i].Err = fmt.Errorf("provision: %w", err)
		}
	}

	// Stage 2: extract.
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		p.extract(ctx, &results[i])
	}

	p.record(ctx, results)
	return results
}

func (p *Pipeline) extract(ctx context.Context, res *Result) {
	raw, err := p.runtime.ListHelp(ctx, res.Version)
	if err != nil {
		slog.Error("Help listing failed.", "version", res.Version, "err", err)
		res.Err = fmt.Errorf("list help topics: %w", err)
		return
	}

	topics := ParseTopics(raw)
	slog.Info("Listed help topics.", "version", res.Version, "count", len(topics))

	if err := p.store.EnsureVersionDir(res.Version); err != nil {
		res.Err = err
		return
	}

	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return
		}
		if !store.SafeTopic(topic) {
			slog.Warn("Skipping topic with unsafe name.", "version", res.Version, "topic", topic)
			res.Partial = true
			continue
		}

		out, err := p.runtime.TopicHelp(ctx, res.Version, topic)
		if err != nil {
			// The client's output is still written so the run stays
			// inspectable, but the version is flagged partial.
			slog.Warn("Topic query failed.", "version", res.Version, "topic", topic, "err", err)
			res.Partial = true
		}
		if err := p.store.WriteTopic(res.Version, topic, out); err != nil {
			res.Err = err
			return
		}
		res.Topics++
		slog.Debug("Wrote help document.", "version", res.Version, "topic", topic)
	}
}

// reapAll force-removes every configured instance. It runs detached from
// the caller's cancellation so an aborted run still cleans up.
func (p *Pipeline) reapAll(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, v := range p.versions {
		if err := p.runtime.Remove(ctx, v); err != nil {
			slog.Warn("Remove failed.", "version", v, "err", err)
		}
	}
}

func (p *Pipeline) record(ctx context.Context, results []Result) {
	if p.recorder == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range results {
		if err := p.recorder.RecordVersion(ctx, r); err != nil {
			slog.Warn("Record run failed.", "version", r.Version, "err", err)
		}
	}
}
