package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDocker points a driver at a fake daemon served by handler.
// The client is pinned to API 1.41 so request paths are predictable.
func newTestDocker(t *testing.T, handler http.HandlerFunc) *Docker {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "http://")
	cli, err := client.NewClientWithOpts(
		client.WithHost("tcp://"+host),
		client.WithVersion("1.41"),
		client.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return NewDockerWithClient(cli)
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestEnsureNetworkAlreadyExists(t *testing.T) {
	created := false
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.41/networks":
			writeJSON(t, w, `[{"Name":"llmdock","Id":"n1"},{"Name":"bridge","Id":"n0"}]`)
		case "/v1.41/networks/create":
			created = true
			writeJSON(t, w, `{"Id":"n2"}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	didCreate, err := d.EnsureNetwork(context.Background(), "llmdock")
	assert.NoError(t, err)
	assert.False(t, didCreate)
	assert.False(t, created, "existing network must not be recreated")
}

func TestEnsureNetworkCreatesMissing(t *testing.T) {
	var createdName string
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.41/networks":
			writeJSON(t, w, `[{"Name":"bridge","Id":"n0"}]`)
		case "/v1.41/networks/create":
			var req struct {
				Name   string `json:"Name"`
				Driver string `json:"Driver"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			createdName = req.Name
			assert.Equal(t, "bridge", req.Driver)
			writeJSON(t, w, `{"Id":"n2"}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	didCreate, err := d.EnsureNetwork(context.Background(), "llmdock")
	assert.NoError(t, err)
	assert.True(t, didCreate)
	assert.Equal(t, "llmdock", createdName)
}

func TestFindContainerMatchesExactName(t *testing.T) {
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/containers/json", r.URL.Path)
		// The daemon's name filter matches substrings; both come back.
		writeJSON(t, w, `[
			{"Id":"abc","Names":["/ollama-backup"],"State":"exited"},
			{"Id":"def","Names":["/ollama"],"State":"running"}
		]`)
	})

	summary, found, err := d.FindContainer(context.Background(), "ollama")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "def", summary.ID)
	assert.Equal(t, "running", summary.State)
}

func TestFindContainerAbsent(t *testing.T) {
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})

	_, found, err := d.FindContainer(context.Background(), "ollama")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateContainerSendsSpec(t *testing.T) {
	var body struct {
		Image      string   `json:"Image"`
		Env        []string `json:"Env"`
		HostConfig struct {
			Binds        []string `json:"Binds"`
			PortBindings map[string][]struct {
				HostIP   string `json:"HostIp"`
				HostPort string `json:"HostPort"`
			} `json:"PortBindings"`
			DeviceRequests []struct {
				Driver string `json:"Driver"`
				Count  int    `json:"Count"`
			} `json:"DeviceRequests"`
		} `json:"HostConfig"`
		NetworkingConfig struct {
			EndpointsConfig map[string]struct {
				Aliases []string `json:"Aliases"`
			} `json:"EndpointsConfig"`
		} `json:"NetworkingConfig"`
	}

	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/containers/create", r.URL.Path)
		assert.Equal(t, "ollama", r.URL.Query().Get("name"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, `{"Id":"abc123","Warnings":[]}`)
	})

	id, err := d.CreateContainer(context.Background(), ContainerSpec{
		Name:    "ollama",
		Image:   "ollama/ollama:latest",
		Network: "llmdock",
		Ports:   []PortBinding{{HostPort: 11434, ContainerPort: 11434}},
		Volumes: []VolumeMount{{Volume: "ollama-data", Path: "/root/.ollama"}},
		Env:     []string{"OLLAMA_KEEP_ALIVE=5m"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	assert.Equal(t, "ollama/ollama:latest", body.Image)
	assert.Equal(t, []string{"OLLAMA_KEEP_ALIVE=5m"}, body.Env)
	assert.Equal(t, []string{"ollama-data:/root/.ollama"}, body.HostConfig.Binds)

	bindings := body.HostConfig.PortBindings["11434/tcp"]
	require.Len(t, bindings, 1)
	assert.Equal(t, "0.0.0.0", bindings[0].HostIP)
	assert.Equal(t, "11434", bindings[0].HostPort)

	endpoint, ok := body.NetworkingConfig.EndpointsConfig["llmdock"]
	require.True(t, ok)
	assert.Equal(t, []string{"ollama"}, endpoint.Aliases)
}

func TestCreateContainerSendsDeviceRequests(t *testing.T) {
	var body struct {
		HostConfig struct {
			DeviceRequests []struct {
				Driver       string     `json:"Driver"`
				Count        int        `json:"Count"`
				Capabilities [][]string `json:"Capabilities"`
			} `json:"DeviceRequests"`
		} `json:"HostConfig"`
	}

	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/containers/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, `{"Id":"abc123","Warnings":[]}`)
	})

	_, err := d.CreateContainer(context.Background(), ContainerSpec{
		Name:    "ollama",
		Image:   "ollama/ollama:latest",
		Network: "llmdock",
		DeviceRequests: []container.DeviceRequest{
			{
				Driver:       "nvidia",
				Count:        -1,
				Capabilities: [][]string{{"gpu"}},
			},
		},
	})
	require.NoError(t, err)

	// GPU passthrough rides in the host config's resources.
	require.Len(t, body.HostConfig.DeviceRequests, 1)
	assert.Equal(t, "nvidia", body.HostConfig.DeviceRequests[0].Driver)
	assert.Equal(t, -1, body.HostConfig.DeviceRequests[0].Count)
	assert.Equal(t, [][]string{{"gpu"}}, body.HostConfig.DeviceRequests[0].Capabilities)
}

func TestStartContainer(t *testing.T) {
	started := false
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/containers/ollama/start", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		started = true
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, d.StartContainer(context.Background(), "ollama"))
	assert.True(t, started)
}

func TestRemoveContainerNotFound(t *testing.T) {
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/containers/gone", r.URL.Path)
		require.Equal(t, http.MethodDelete, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"No such container: gone"}`))
	})

	err := d.RemoveContainer(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "404 from the daemon should classify as not-found")
}

func TestRemoveVolumeNotFound(t *testing.T) {
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1.41/volumes/gone", r.URL.Path)
		require.Equal(t, http.MethodDelete, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"get gone: no such volume"}`))
	})

	err := d.RemoveVolume(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestPullImageIfMissingSkipsPresent(t *testing.T) {
	pulled := false
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.41/images/json":
			writeJSON(t, w, `[{"Id":"sha256:deadbeef"}]`)
		case "/v1.41/images/create":
			pulled = true
			writeJSON(t, w, `{}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	didPull, err := d.PullImageIfMissing(context.Background(), "ollama/ollama:latest")
	require.NoError(t, err)
	assert.False(t, didPull)
	assert.False(t, pulled)
}

func TestPullImageIfMissingPulls(t *testing.T) {
	d := newTestDocker(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.41/images/json":
			writeJSON(t, w, `[]`)
		case "/v1.41/images/create":
			writeJSON(t, w, `{"status":"Pulling from ollama/ollama"}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	didPull, err := d.PullImageIfMissing(context.Background(), "ollama/ollama:latest")
	require.NoError(t, err)
	assert.True(t, didPull)
}
