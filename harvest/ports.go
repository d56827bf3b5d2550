package harvest

import "context"

// Runtime is the container-side surface the pipeline drives. The real
// implementation lives in infra/postgres; tests substitute a fake.
type Runtime interface {
	// Provision starts a named, detached server instance for the version
	// and blocks until it accepts connections.
	Provision(ctx context.Context, version string) error

	// ListHelp returns the client's raw columnar help-topic listing.
	ListHelp(ctx context.Context, version string) (string, error)

	// TopicHelp returns the client's help text for one topic. Output may
	// be non-empty even when err is non-nil (partial or error text).
	TopicHelp(ctx context.Context, version, topic string) (string, error)

	// Remove force-removes the instance. Removing an absent instance is
	// not an error.
	Remove(ctx context.Context, version string) error
}

// Recorder receives the per-version outcome of a run, for history
// keeping. Implementations must tolerate being called after failures.
type Recorder interface {
	RecordVersion(ctx context.Context, r Result) error
}
