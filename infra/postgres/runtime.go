// Package postgres runs disposable PostgreSQL instances as Docker
// containers and issues psql meta-commands inside them. It implements
// the harvest.Runtime port.
package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	superuser   = "postgres"
	serverPort  = nat.Port("5432/tcp")
	readyPoll   = 500 * time.Millisecond
	readyWindow = 60 * time.Second
)

// Runtime manages one named container per version.
type Runtime struct {
	docker    client.APIClient
	imageRepo string
	password  string
	ports     map[string]int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithPublishPorts maps versions to host ports for publishing 5432.
// Versions absent from the map are not published.
func WithPublishPorts(ports map[string]int) Option {
	return func(r *Runtime) { r.ports = ports }
}

// New creates a Runtime over an existing Docker client.
func New(docker client.APIClient, imageRepo, password string, opts ...Option) *Runtime {
	r := &Runtime{
		docker:    docker,
		imageRepo: imageRepo,
		password:  password,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromEnv creates a Runtime with a Docker client from the environment.
func NewFromEnv(imageRepo, password string, opts ...Option) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return New(cli, imageRepo, password, opts...), nil
}

// InstanceName returns the container name for a version, e.g. "postgres_14".
func InstanceName(version string) string {
	return "postgres_" + version
}

func (r *Runtime) imageRef(version string) string {
	return r.imageRepo + ":" + version
}

// Provision creates and starts the version's container, pulling the
// image when missing, then waits until the server accepts connections.
// Any stale container with the same name is removed first.
func (r *Runtime) Provision(ctx context.Context, version string) error {
	name := InstanceName(version)

	// Remove any leftover from a previous aborted run.
	_ = r.docker.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})

	img := r.imageRef(version)
	containerCfg := &container.Config{
		Image: img,
		Env:   []string{"POSTGRES_PASSWORD=" + r.password},
	}
	hostCfg := &container.HostConfig{}
	if hostPort, ok := r.ports[version]; ok {
		containerCfg.ExposedPorts = nat.PortSet{serverPort: struct{}{}}
		hostCfg.PortBindings = nat.PortMap{
			serverPort: []nat.PortBinding{{HostPort: strconv.Itoa(hostPort)}},
		}
	}

	if err := r.createAndStart(ctx, name, img, containerCfg, hostCfg); err != nil {
		return err
	}
	if err := r.waitReady(ctx, name); err != nil {
		_ = r.docker.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
		return err
	}

	slog.Debug("Instance ready.", "name", name)
	return nil
}

// createAndStart creates the container and starts it. If the image is
// not found locally, it pulls the image and retries the create.
func (r *Runtime) createAndStart(ctx context.Context, name, img string, containerCfg *container.Config, hostCfg *container.HostConfig) error {
	_, err := r.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, (*ocispec.Platform)(nil), name)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("create container %s: %w", name, err)
		}
		if err := r.pullImage(ctx, img); err != nil {
			return err
		}
		if _, err = r.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name); err != nil {
			return fmt.Errorf("create container %s after pull: %w", name, err)
		}
	}

	if err := r.docker.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", name, err)
	}
	return nil
}

func (r *Runtime) pullImage(ctx context.Context, img string) error {
	slog.Info("Pulling image.", "image", img)
	resp, err := r.docker.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer resp.Close()
	// Drain the pull output to completion.
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull image %s: read response: %w", img, err)
	}
	return nil
}

// waitReady polls pg_isready inside the container until the server
// accepts connections or the window elapses.
func (r *Runtime) waitReady(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, readyWindow)
	defer cancel()

	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()

	for {
		if _, err := r.exec(ctx, name, "pg_isready", "-U", superuser); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("instance %s not ready: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ListHelp runs `\h` and returns psql's raw columnar topic listing.
func (r *Runtime) ListHelp(ctx context.Context, version string) (string, error) {
	out, err := r.psql(ctx, version, `\h`)
	return out, err
}

// TopicHelp runs `\h <topic>`. The returned output is whatever the
// client printed on stdout, even when the command failed.
func (r *Runtime) TopicHelp(ctx context.Context, version, topic string) (string, error) {
	return r.psql(ctx, version, `\h `+topic)
}

func (r *Runtime) psql(ctx context.Context, version, metaCommand string) (string, error) {
	out, err := r.exec(ctx, InstanceName(version), "psql", "-U", superuser, "-c", metaCommand)
	return string(out), err
}

// Remove force-removes the version's container. Removing an absent
// container is not an error.
func (r *Runtime) Remove(ctx context.Context, version string) error {
	name := InstanceName(version)
	if err := r.docker.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove container %s: %w", name, err)
		}
	}
	return nil
}
