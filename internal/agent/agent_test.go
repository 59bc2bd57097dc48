package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusScript = `
def run(info):
    res = get(info["url"])
    return {"status": res[0], "body": res[1], "site": info.get("site", "")}
`

func testConfig(url string) *config.Agent {
	return &config.Agent{
		Scheduler: &config.Scheduler{Interval: "0s", Timeout: "5s", Workers: 2},
		Bridge:    &config.Bridge{Timeout: "2s", ScriptTimeout: "3s", MaxSteps: 100000},
		Sink:      &config.Sink{Memory: &config.MemorySink{History: 5}},
		Server:    &config.Server{Listen: "127.0.0.1:0"},
		Scripts: []config.Script{
			{
				Name:         "homepage",
				Source:       statusScript,
				Capabilities: []string{"get"},
				Context:      map[string]interface{}{"url": url},
			},
			{
				Name:   "broken",
				Source: "def main(info):\n    return {}\n",
			},
		},
		Probes: []config.Probe{
			{Name: "tmp", Filesystem: "/"},
		},
		Endpoints: []config.Endpoint{
			{
				Name:    "backend",
				Context: map[string]interface{}{"url": url},
				Scripts: []config.Script{
					{
						Name:    "api",
						Source:  statusScript,
						Context: map[string]interface{}{"site": "fra1"},
					},
					{
						Name:   "syntax",
						Source: "def run(info)\n",
					},
				},
				Probes: []config.Probe{
					{Name: "fs", Filesystem: "/"},
				},
			},
		},
	}
}

func target(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuild(t *testing.T) {
	srv := target(t)
	a, err := Build(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"homepage", "tmp", "backend"}, a.Manager.Names())

	require.Len(t, a.Rejected, 2)
	var verr *script.ValidationError
	assert.ErrorAs(t, a.Rejected["broken"], &verr)
	var cerr *script.CompileError
	assert.ErrorAs(t, a.Rejected["backend.syntax"], &cerr)

	url, ok := a.Contexts["homepage"].Get("url")
	require.True(t, ok)
	assert.Equal(t, `"`+srv.URL+`"`, url.String())
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Probes = append(cfg.Probes, config.Probe{Name: "homepage", Filesystem: "/"})

	_, err := Build(context.Background(), cfg)
	var verr config.ValidationErrors
	assert.ErrorAs(t, err, &verr)
}

func TestCycle(t *testing.T) {
	srv := target(t)
	a, err := Build(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer a.Close()

	c := a.Scheduler.RunOnce(context.Background())

	home := c.Snapshots["homepage"]
	status, _ := home.Get("status")
	assert.Equal(t, `"200 OK"`, status.String())
	body, _ := home.Get("body")
	assert.Equal(t, `"pong"`, body.String())

	backend := c.Snapshots["backend"]
	api, ok := backend.Get("api")
	require.True(t, ok)
	site, _ := api.Get("site")
	assert.Equal(t, `"fra1"`, site.String())
	apiBody, _ := api.Get("body")
	assert.Equal(t, `"pong"`, apiBody.String())

	fs, ok := backend.Get("fs")
	require.True(t, ok)
	fsOK, _ := fs.Get("ok")
	assert.Equal(t, "true", fsOK.String())

	assert.False(t, backend.Failing())

	hist, err := a.Sink.History(context.Background(), "homepage", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := target(t)
	a, err := Build(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestBuildBridgeRemotes(t *testing.T) {
	_, err := BuildBridge(&config.Agent{Remotes: []config.Remote{{Protocol: "ssh"}}})
	assert.Error(t, err, "ssh without known hosts and without insecure flag")

	b, err := BuildBridge(&config.Agent{Remotes: []config.Remote{{Protocol: "ssh", InsecureIgnoreHostKey: true, Default: true}}})
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = BuildBridge(&config.Agent{Remotes: []config.Remote{{Protocol: "telnet"}}})
	assert.Error(t, err)
}

func TestBuildScriptDefaults(t *testing.T) {
	cfg := &config.Script{Name: "x", Source: "def run(info):\n    return {}\n", Capabilities: []string{"post_json"}}
	s, err := BuildScript(cfg, nil, &config.Bridge{ScriptTimeout: "1s", MaxSteps: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"post_json"}, s.Capabilities().List())

	_, err = BuildScript(&config.Script{Name: "y", Source: "x", Timeout: "never"}, nil, nil)
	assert.Error(t, err)
}

func TestContextSnapshot(t *testing.T) {
	snap, err := ContextSnapshot(map[string]interface{}{
		"ip":    "10.0.0.1",
		"port":  8080,
		"hosts": []interface{}{"a", "b"},
		"auth":  []map[string]interface{}{{"user": "monitor"}},
	})
	require.NoError(t, err)

	port, _ := snap.Get("port")
	assert.Equal(t, "8080", port.String())
	hosts, _ := snap.Get("hosts")
	assert.Equal(t, 2, hosts.Len())
	auth, _ := snap.Get("auth")
	user, ok := auth.Get("user")
	require.True(t, ok)
	assert.Equal(t, `"monitor"`, user.String())

	empty, err := ContextSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
