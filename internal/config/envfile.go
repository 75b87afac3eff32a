package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// Env file keys consumed by the web frontend container.
const (
	KeySearchEngine   = "WEB_SEARCH_ENGINE"
	KeySearchAPIKey   = "SEARCH_API_KEY"
	KeySearchEndpoint = "SEARCH_ENDPOINT_URL"
	KeySecret         = "WEBUI_SECRET_KEY"
	KeyEnableSignup   = "ENABLE_SIGNUP"
	KeyDefaultModel   = "DEFAULT_MODEL"
	KeyOllamaBaseURL  = "OLLAMA_BASE_URL"
	KeyOllamaPort     = "OLLAMA_PORT"
	KeyWebUIPort      = "WEBUI_PORT"
)

// secretBytes is the random secret length before hex encoding. 32 bytes
// encode to the 64-character hex value the frontend expects.
const secretBytes = 32

// EnvFile is the loaded frontend configuration.
type EnvFile struct {
	// Path is where the file lives on disk.
	Path string

	// Values is the parsed key=value mapping.
	Values map[string]string

	// Created reports whether this run materialized the file.
	Created bool
}

// EnsureEnvFile loads the env file at path, creating it with defaults
// first if it does not exist.
//
// Creation writes all nine documented keys, including a freshly
// generated secret. An existing file is parsed and returned verbatim;
// defaults are never merged into it, so the secret stays stable across
// runs. A file that cannot be parsed is an error rather than a silent
// pass-through.
func EnsureEnvFile(path string, settings *Settings) (*EnvFile, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat env file %s: %w", path, err)
		}

		values, err := defaultEnvValues(settings)
		if err != nil {
			return nil, err
		}
		if err := godotenv.Write(values, path); err != nil {
			return nil, fmt.Errorf("failed to write env file %s: %w", path, err)
		}
		return &EnvFile{Path: path, Values: values, Created: true}, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return &EnvFile{Path: path, Values: values}, nil
}

// Environ returns the values as KEY=value pairs sorted by key, the form
// the container runtime expects.
func (e *EnvFile) Environ() []string {
	keys := make([]string, 0, len(e.Values))
	for k := range e.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, e.Values[k]))
	}
	return env
}

func defaultEnvValues(settings *Settings) (map[string]string, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		KeySearchEngine:   "duckduckgo",
		KeySearchAPIKey:   "",
		KeySearchEndpoint: "",
		KeySecret:         secret,
		KeyEnableSignup:   "true",
		KeyDefaultModel:   "llama3.2",
		KeyOllamaBaseURL:  fmt.Sprintf("http://%s:%d", settings.Ollama.ContainerName, settings.Ollama.ContainerPort),
		KeyOllamaPort:     fmt.Sprintf("%d", settings.Ollama.HostPort),
		KeyWebUIPort:      fmt.Sprintf("%d", settings.WebUI.HostPort),
	}, nil
}

// generateSecret returns a 64-character hex string from a CSPRNG.
func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
