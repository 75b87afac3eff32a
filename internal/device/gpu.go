// Package device probes host hardware capabilities for llmdock.
//
// The only capability the stack cares about is NVIDIA GPU passthrough
// for the model server. Detection is deliberately soft: a host without
// the NVIDIA tooling simply deploys a CPU-only stack.
package device

import (
	"os/exec"

	"github.com/docker/docker/api/types/container"

	"github.com/llmdock/llmdock/internal/logger"
)

// nvidiaSMI is the management utility whose presence indicates a
// working NVIDIA driver installation.
const nvidiaSMI = "nvidia-smi"

// HasNVIDIA reports whether the NVIDIA management utility is resolvable
// on PATH.
func HasNVIDIA() bool {
	_, err := exec.LookPath(nvidiaSMI)
	return err == nil
}

// GPURequest returns the device request granting a container access to
// all host GPUs, or nil when GPU support is disabled or the host has no
// NVIDIA tooling. Absence is never an error.
func GPURequest(enabled bool) []container.DeviceRequest {
	if !enabled {
		return nil
	}
	if !HasNVIDIA() {
		logger.Debug("%s not found on PATH, deploying without GPU passthrough", nvidiaSMI)
		return nil
	}

	logger.Info("NVIDIA GPU detected, enabling full GPU passthrough")
	return []container.DeviceRequest{
		{
			Driver:       "nvidia",
			Count:        -1, // all GPUs
			Capabilities: [][]string{{"gpu"}},
		},
	}
}
