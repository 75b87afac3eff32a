// Package runtime drives the Docker engine for llmdock.
//
// It wraps the Docker SDK with the small set of idempotent operations
// the deployment needs: ensure a network exists, ensure a named
// container is running, pull missing images, and tear managed resources
// down again. The package holds no state of its own beyond the client;
// container and network state lives entirely in the Docker daemon.
package runtime

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/llmdock/llmdock/internal/logger"
)

// pingTimeout bounds the daemon reachability check at construction.
const pingTimeout = 5 * time.Second

// stopTimeout is how long a container gets to shut down gracefully
// before Docker escalates to SIGKILL.
const stopTimeout = 30 * time.Second

// Docker is the container runtime driver.
//
// All methods are single-shot calls against the daemon; none retry.
type Docker struct {
	client *client.Client
}

// NewDocker creates a Docker driver from the environment (DOCKER_HOST,
// DOCKER_TLS_VERIFY, DOCKER_CERT_PATH) with API version negotiation,
// and verifies the daemon is reachable before returning. An unreachable
// daemon is reported immediately so no later step runs against a dead
// engine.
func NewDocker(ctx context.Context) (*Docker, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := cli.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("Docker daemon is not accessible: %w", err)
	}

	return &Docker{client: cli}, nil
}

// NewDockerWithClient creates a driver around an existing client. Used
// by tests to point the driver at a fake daemon.
func NewDockerWithClient(cli *client.Client) *Docker {
	return &Docker{client: cli}
}

// Close releases the underlying client.
func (d *Docker) Close() error {
	return d.client.Close()
}

// PortBinding publishes one container port on the host.
type PortBinding struct {
	HostPort      int
	ContainerPort int
}

// VolumeMount mounts a named volume at a container path.
type VolumeMount struct {
	Volume string
	Path   string
}

// ContainerSpec describes a container to be created.
type ContainerSpec struct {
	// Name is the fixed container name, also used for existence checks.
	Name string

	// Image is the image reference.
	Image string

	// Network is the bridge network to attach to. The container is
	// reachable from the network under Name as an alias.
	Network string

	// Ports are the host port publications.
	Ports []PortBinding

	// Volumes are named volume mounts.
	Volumes []VolumeMount

	// Env is the container environment as KEY=value pairs.
	Env []string

	// DeviceRequests grants device access, e.g. NVIDIA GPU passthrough.
	DeviceRequests []container.DeviceRequest
}

// EnsureNetwork makes sure the named bridge network exists. It reports
// whether this call created it.
func (d *Docker) EnsureNetwork(ctx context.Context, name string) (bool, error) {
	networks, err := d.client.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list networks: %w", err)
	}

	for _, n := range networks {
		if n.Name == name {
			logger.Debug("Network %s already exists", name)
			return false, nil
		}
	}

	logger.Info("Creating network: %s", name)
	if _, err := d.client.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
	}); err != nil {
		return false, fmt.Errorf("failed to create network %s: %w", name, err)
	}

	return true, nil
}

// FindContainer looks a container up by exact name, in any state.
func (d *Docker) FindContainer(ctx context.Context, name string) (container.Summary, bool, error) {
	containers, err := d.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return container.Summary{}, false, fmt.Errorf("failed to list containers: %w", err)
	}

	// The name filter matches substrings; require an exact hit.
	for _, c := range containers {
		for _, n := range c.Names {
			if n == "/"+name {
				return c, true, nil
			}
		}
	}

	return container.Summary{}, false, nil
}

// StartContainer starts an existing container by name or ID. The
// container keeps whatever configuration it was created with.
func (d *Docker) StartContainer(ctx context.Context, name string) error {
	if err := d.client.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", name, err)
	}
	return nil
}

// CreateContainer creates a container from spec, attached to the
// spec's network with the container name as alias, and returns its ID.
// The container is created in the stopped state; start it with
// StartContainer.
func (d *Docker) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	exposedPorts := make(nat.PortSet)
	portBindings := make(nat.PortMap)
	for _, p := range spec.Ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", p.ContainerPort))
		exposedPorts[port] = struct{}{}
		portBindings[port] = []nat.PortBinding{
			{
				HostIP:   "0.0.0.0",
				HostPort: strconv.Itoa(p.HostPort),
			},
		}
	}

	binds := make([]string, 0, len(spec.Volumes))
	for _, v := range spec.Volumes {
		binds = append(binds, fmt.Sprintf("%s:%s", v.Volume, v.Path))
	}

	containerConfig := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		ExposedPorts: exposedPorts,
	}

	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Binds:        binds,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyAlways,
		},
		Resources: container.Resources{
			DeviceRequests: spec.DeviceRequests,
		},
	}

	networkConfig := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			spec.Network: {
				Aliases: []string{spec.Name},
			},
		},
	}

	logger.Info("Creating container: %s (image: %s)", spec.Name, spec.Image)
	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, networkConfig, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", spec.Name, err)
	}

	return resp.ID, nil
}

// PullImageIfMissing pulls ref unless the daemon already has it. The
// pull output is drained to completion; a pull is only done once the
// whole stream has been consumed. It reports whether a pull happened.
func (d *Docker) PullImageIfMissing(ctx context.Context, ref string) (bool, error) {
	images, err := d.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) > 0 {
		logger.Debug("Image %s already present", ref)
		return false, nil
	}

	logger.Info("Pulling image: %s", ref)
	rc, err := d.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer func() { _ = rc.Close() }()

	if _, err := io.Copy(io.Discard, rc); err != nil {
		return false, fmt.Errorf("image pull of %s interrupted: %w", ref, err)
	}

	return true, nil
}

// StopContainer stops the named container, allowing stopTimeout for
// graceful shutdown.
func (d *Docker) StopContainer(ctx context.Context, name string) error {
	timeout := int(stopTimeout.Seconds())
	if err := d.client.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// RemoveContainer force-removes the named container.
func (d *Docker) RemoveContainer(ctx context.Context, name string) error {
	if err := d.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return nil
}

// RemoveVolume removes the named volume.
func (d *Docker) RemoveVolume(ctx context.Context, name string) error {
	if err := d.client.VolumeRemove(ctx, name, true); err != nil {
		return fmt.Errorf("failed to remove volume %s: %w", name, err)
	}
	return nil
}

// ContainerLogs returns the container's log stream. The stream is
// multiplexed stdout/stderr; demultiplex with stdcopy.
func (d *Docker) ContainerLogs(ctx context.Context, name string, follow bool, tail string) (io.ReadCloser, error) {
	rc, err := d.client.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       tail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for %s: %w", name, err)
	}
	return rc, nil
}

// IsNotFound reports whether err means the resource does not exist in
// the daemon. Reset treats this as expected absence, not failure.
func IsNotFound(err error) bool {
	return cerrdefs.IsNotFound(err)
}
