// Package stack orchestrates the llmdock deployment lifecycle.
//
// A deployment is one strictly sequential pass: env file, network,
// model server container, frontend container, health probes, browser.
// Reset is the inverse, minus the network and the env file, with every
// removal treated as best-effort.
package stack

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"

	"github.com/llmdock/llmdock/internal/browser"
	"github.com/llmdock/llmdock/internal/config"
	"github.com/llmdock/llmdock/internal/device"
	"github.com/llmdock/llmdock/internal/health"
	"github.com/llmdock/llmdock/internal/logger"
	"github.com/llmdock/llmdock/internal/runtime"
)

// Runtime is the container engine surface the stack needs. Implemented
// by *runtime.Docker; faked in tests.
type Runtime interface {
	EnsureNetwork(ctx context.Context, name string) (bool, error)
	FindContainer(ctx context.Context, name string) (container.Summary, bool, error)
	StartContainer(ctx context.Context, name string) error
	CreateContainer(ctx context.Context, spec runtime.ContainerSpec) (string, error)
	PullImageIfMissing(ctx context.Context, ref string) (bool, error)
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	RemoveVolume(ctx context.Context, name string) error
	ContainerLogs(ctx context.Context, name string, follow bool, tail string) (io.ReadCloser, error)
}

// Stack deploys and resets the two-service stack described by its
// settings.
type Stack struct {
	settings *config.Settings
	runtime  Runtime
	prober   *health.Prober
}

// New connects to the Docker daemon and returns a ready Stack. A
// missing or unreachable daemon is the first and only thing that can
// fail here, before any file or runtime state is touched.
func New(ctx context.Context, settings *config.Settings) (*Stack, error) {
	docker, err := runtime.NewDocker(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	return NewWithRuntime(settings, docker), nil
}

// NewWithRuntime returns a Stack on an existing runtime. Used by tests.
func NewWithRuntime(settings *config.Settings, rt Runtime) *Stack {
	return &Stack{
		settings: settings,
		runtime:  rt,
		prober:   health.NewProber(time.Duration(settings.SettleDelay)),
	}
}

// Deploy runs the full deployment sequence. The first failing step
// aborts the run with one of the package's error classes; earlier steps
// are not rolled back.
func (s *Stack) Deploy(ctx context.Context) error {
	envFile, err := config.EnsureEnvFile(s.settings.EnvFile, s.settings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if envFile.Created {
		logger.Info("Created %s with default configuration", envFile.Path)
	} else {
		logger.Info("Using existing configuration from %s", envFile.Path)
	}

	if _, err := s.runtime.EnsureNetwork(ctx, s.settings.Network); err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkCreate, err)
	}

	gpu := device.GPURequest(s.settings.GPU)

	ollamaSpec := runtime.ContainerSpec{
		Name:    s.settings.Ollama.ContainerName,
		Image:   s.settings.Ollama.Image,
		Network: s.settings.Network,
		Ports: []runtime.PortBinding{
			{HostPort: s.settings.Ollama.HostPort, ContainerPort: s.settings.Ollama.ContainerPort},
		},
		Volumes: []runtime.VolumeMount{
			{Volume: s.settings.Ollama.Volume, Path: s.settings.Ollama.MountPath},
		},
		DeviceRequests: gpu,
	}
	if err := s.ensureContainer(ctx, ollamaSpec); err != nil {
		return err
	}

	webuiSpec := runtime.ContainerSpec{
		Name:    s.settings.WebUI.ContainerName,
		Image:   s.settings.WebUI.Image,
		Network: s.settings.Network,
		Ports: []runtime.PortBinding{
			{HostPort: s.settings.WebUI.HostPort, ContainerPort: s.settings.WebUI.ContainerPort},
		},
		Volumes: []runtime.VolumeMount{
			{Volume: s.settings.WebUI.Volume, Path: s.settings.WebUI.MountPath},
		},
		Env: envFile.Environ(),
	}
	if err := s.ensureContainer(ctx, webuiSpec); err != nil {
		return err
	}

	targets := []health.Target{
		{Name: s.settings.Ollama.ContainerName, URL: s.settings.Ollama.URL()},
		{Name: s.settings.WebUI.ContainerName, URL: s.settings.WebUI.URL()},
	}
	if err := s.prober.Check(ctx, targets); err != nil {
		return fmt.Errorf("%w: %v", ErrHealthCheck, err)
	}

	logger.Info("Stack is up: %s", s.settings.WebUI.URL())

	if s.settings.OpenBrowser {
		browser.Open(s.settings.WebUI.URL())
	}

	return nil
}

// ensureContainer makes a running container with spec.Name exist.
//
// An existing container, running or stopped, is started as-is and the
// spec is NOT reapplied; a changed port, volume or env value has no
// effect until the container is recreated (llmdock reset). That
// discard is logged so configuration drift is at least visible.
func (s *Stack) ensureContainer(ctx context.Context, spec runtime.ContainerSpec) error {
	existing, found, err := s.runtime.FindContainer(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContainerCreate, err)
	}

	if found {
		logger.Warn("Container %s already exists (state: %s); starting it as-is, current configuration is not applied", spec.Name, existing.State)
		if err := s.runtime.StartContainer(ctx, spec.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrContainerStart, err)
		}
		return nil
	}

	if _, err := s.runtime.PullImageIfMissing(ctx, spec.Image); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerCreate, err)
	}

	if _, err := s.runtime.CreateContainer(ctx, spec); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerCreate, err)
	}
	if err := s.runtime.StartContainer(ctx, spec.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerCreate, err)
	}

	return nil
}

// Reset stops and removes both managed containers and their volumes.
//
// Every removal is best-effort: a resource that does not exist is
// expected absence and logged at debug, any other failure is logged as
// a warning. Reset never fails and never touches the network or the
// env file.
func (s *Stack) Reset(ctx context.Context) error {
	for _, name := range []string{s.settings.WebUI.ContainerName, s.settings.Ollama.ContainerName} {
		s.bestEffort(fmt.Sprintf("stop container %s", name), s.runtime.StopContainer(ctx, name))
		s.bestEffort(fmt.Sprintf("remove container %s", name), s.runtime.RemoveContainer(ctx, name))
	}

	for _, volume := range []string{s.settings.WebUI.Volume, s.settings.Ollama.Volume} {
		s.bestEffort(fmt.Sprintf("remove volume %s", volume), s.runtime.RemoveVolume(ctx, volume))
	}

	logger.Info("Reset complete")
	return nil
}

// bestEffort classifies a removal error: absence is expected during
// reset, anything else is surfaced as a warning but still discarded.
func (s *Stack) bestEffort(op string, err error) {
	switch {
	case err == nil:
		logger.Debug("%s: done", op)
	case runtime.IsNotFound(err):
		logger.Debug("%s: not present, nothing to do", op)
	default:
		logger.Warn("%s: %v", op, err)
	}
}

// Logs returns the raw multiplexed log stream for a managed container.
func (s *Stack) Logs(ctx context.Context, containerName string, follow bool, tail string) (io.ReadCloser, error) {
	return s.runtime.ContainerLogs(ctx, containerName, follow, tail)
}

// ServiceStatus is one managed container's observed state.
type ServiceStatus struct {
	// Service is the logical service name from the settings.
	Service string

	// Container is the container name.
	Container string

	// State is the runtime state ("running", "exited", ...) or
	// "absent" when no container with the managed name exists.
	State string

	// Status is the human-readable status line from the runtime.
	Status string

	// URL is the published endpoint.
	URL string
}

// Status reports the observed state of both managed containers.
func (s *Stack) Status(ctx context.Context) ([]ServiceStatus, error) {
	services := []struct {
		name    string
		service config.Service
	}{
		{"ollama", s.settings.Ollama},
		{"webui", s.settings.WebUI},
	}

	statuses := make([]ServiceStatus, 0, len(services))
	for _, svc := range services {
		status := ServiceStatus{
			Service:   svc.name,
			Container: svc.service.ContainerName,
			State:     "absent",
			URL:       svc.service.URL(),
		}

		summary, found, err := s.runtime.FindContainer(ctx, svc.service.ContainerName)
		if err != nil {
			return nil, err
		}
		if found {
			status.State = summary.State
			status.Status = summary.Status
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}
