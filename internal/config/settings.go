// Package config provides configuration management for llmdock.
//
// Two layers of configuration exist:
//   - Settings: how llmdock itself runs (container names, images, ports,
//     network and volume names). Loaded from an optional YAML file and
//     passed explicitly to every component.
//   - The env file: the key=value file consumed by the web frontend
//     container. Materialized on first run, read-only afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDirName is the settings directory created in the
	// user's home directory.
	DefaultConfigDirName = ".llmdock"

	// DefaultSettingsFileName is the YAML settings file name inside
	// the config directory.
	DefaultSettingsFileName = "config.yaml"

	// DefaultNetworkName is the bridge network joining both containers.
	DefaultNetworkName = "llmdock"

	// DefaultEnvFileName is the frontend env file, relative to the
	// working directory so a stack stays local to its project.
	DefaultEnvFileName = ".llmdock.env"

	// DefaultLogFileName receives a copy of all log output.
	DefaultLogFileName = "llmdock.log"

	// DefaultOllamaImage is the model server image.
	DefaultOllamaImage = "ollama/ollama:latest"

	// DefaultWebUIImage is the web frontend image.
	DefaultWebUIImage = "ghcr.io/open-webui/open-webui:main"

	// DefaultOllamaPort is the model server's published host port.
	DefaultOllamaPort = 11434

	// DefaultWebUIPort is the frontend's published host port. The
	// container itself listens on 8080.
	DefaultWebUIPort = 3000

	// DefaultSettleDelay is how long to wait after starting the
	// containers before probing their HTTP endpoints.
	DefaultSettleDelay = 5 * time.Second
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "5s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Settings is the complete llmdock configuration.
//
// Every field has a working default; the YAML settings file only needs
// to name the fields it overrides. A Settings value is passed explicitly
// to each component rather than read from package state.
type Settings struct {
	// Network is the name of the bridge network both services join.
	Network string `yaml:"network"`

	// EnvFile is the path of the frontend env file.
	EnvFile string `yaml:"env_file"`

	// LogFile is the path that duplicates all log output. Empty
	// disables the file copy.
	LogFile string `yaml:"log_file"`

	// GPU enables NVIDIA GPU passthrough for the model server when
	// the host has the NVIDIA tooling installed.
	GPU bool `yaml:"gpu"`

	// OpenBrowser opens the frontend URL after a successful deploy.
	OpenBrowser bool `yaml:"open_browser"`

	// SettleDelay is the wait before health probing.
	SettleDelay Duration `yaml:"settle_delay"`

	// Ollama is the model server service.
	Ollama Service `yaml:"ollama"`

	// WebUI is the web frontend service.
	WebUI Service `yaml:"webui"`
}

// Service describes one managed container.
type Service struct {
	// ContainerName is the fixed container name used for existence
	// checks and restarts.
	ContainerName string `yaml:"container_name"`

	// Image is the image reference to create the container from.
	Image string `yaml:"image"`

	// HostPort is the port published on localhost.
	HostPort int `yaml:"host_port"`

	// ContainerPort is the port the service listens on inside the
	// container.
	ContainerPort int `yaml:"container_port"`

	// Volume is the named volume holding the service's state.
	Volume string `yaml:"volume"`

	// MountPath is where the volume is mounted inside the container.
	MountPath string `yaml:"mount_path"`
}

// NewDefaultSettings returns Settings with the stock deployment layout:
// an Ollama model server on 11434 and an Open WebUI frontend on 3000,
// both on the llmdock bridge network with one named volume each.
func NewDefaultSettings() *Settings {
	return &Settings{
		Network:     DefaultNetworkName,
		EnvFile:     DefaultEnvFileName,
		LogFile:     DefaultLogFileName,
		GPU:         true,
		OpenBrowser: true,
		SettleDelay: Duration(DefaultSettleDelay),
		Ollama: Service{
			ContainerName: "ollama",
			Image:         DefaultOllamaImage,
			HostPort:      DefaultOllamaPort,
			ContainerPort: 11434,
			Volume:        "ollama-data",
			MountPath:     "/root/.ollama",
		},
		WebUI: Service{
			ContainerName: "open-webui",
			Image:         DefaultWebUIImage,
			HostPort:      DefaultWebUIPort,
			ContainerPort: 8080,
			Volume:        "open-webui-data",
			MountPath:     "/app/backend/data",
		},
	}
}

// DefaultSettingsPath returns the settings file location inside the
// user's config directory (~/.llmdock/config.yaml).
func DefaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "/tmp"
	}
	return filepath.Join(homeDir, DefaultConfigDirName, DefaultSettingsFileName)
}

// LoadSettings loads Settings from path, layered over the defaults.
//
// A missing file is not an error; the defaults are returned unchanged.
// An unreadable or syntactically invalid file is an error, as is any
// override that leaves a service without a name, image or valid port.
func LoadSettings(path string) (*Settings, error) {
	settings := NewDefaultSettings()

	if path == "" {
		path = DefaultSettingsPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return settings, nil
}

// Validate checks that the settings describe a deployable stack.
func (s *Settings) Validate() error {
	if s.Network == "" {
		return fmt.Errorf("network name is required")
	}
	if s.EnvFile == "" {
		return fmt.Errorf("env file path is required")
	}
	for _, svc := range []struct {
		name    string
		service Service
	}{
		{"ollama", s.Ollama},
		{"webui", s.WebUI},
	} {
		if svc.service.ContainerName == "" {
			return fmt.Errorf("%s: container name is required", svc.name)
		}
		if svc.service.Image == "" {
			return fmt.Errorf("%s: image is required", svc.name)
		}
		if svc.service.HostPort <= 0 || svc.service.HostPort > 65535 {
			return fmt.Errorf("%s: host port %d out of range", svc.name, svc.service.HostPort)
		}
		if svc.service.ContainerPort <= 0 || svc.service.ContainerPort > 65535 {
			return fmt.Errorf("%s: container port %d out of range", svc.name, svc.service.ContainerPort)
		}
	}
	return nil
}

// URL returns the service's published localhost endpoint.
func (s *Service) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.HostPort)
}
