package stack

import "errors"

// Fatal deployment error classes. Every class aborts the run; none are
// retried or downgraded. Wrapped errors carry the failing resource.
var (
	// ErrMissingDependency means the container runtime daemon is not
	// available. Nothing else runs after this.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrInvalidConfig means the env file exists but cannot be parsed,
	// or could not be materialized.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNetworkCreate means the shared network could not be created.
	ErrNetworkCreate = errors.New("network create failed")

	// ErrContainerStart means an already-existing managed container
	// could not be started.
	ErrContainerStart = errors.New("container start failed")

	// ErrContainerCreate means a fresh managed container could not be
	// created and started, including a failed image pull.
	ErrContainerCreate = errors.New("container create failed")

	// ErrHealthCheck means a deployed service did not answer its HTTP
	// probe with 200.
	ErrHealthCheck = errors.New("health check failed")
)
