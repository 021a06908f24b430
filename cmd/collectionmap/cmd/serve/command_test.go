package serve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/cmd/application"
)

func TestParseConfigDefaults(t *testing.T) {
	app := &application.Mock{MaxUploadFunc: func() int64 { return 1 << 20 }}
	cmd := NewCommand(app)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := parseConfig(cmd, app)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "/api", cfg.PathPrefix)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.AuthEnabled)
}

func TestParseConfigFlags(t *testing.T) {
	app := &application.Mock{}
	cmd := NewCommand(app)
	require.NoError(t, cmd.ParseFlags([]string{
		"--host", "0.0.0.0", "--port", "9000", "--prefix", "v1/",
		"--cors-origins", "https://a.example,https://b.example",
		"--auth", "--api-key", "k",
		"--rate-limit", "0", "--cache-ttl", "1m",
	}))

	cfg, err := parseConfig(cmd, app)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "/v1", cfg.PathPrefix)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestParseConfigEnvironment(t *testing.T) {
	t.Setenv("HTTP_HOST", "127.0.0.1")
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("API_KEY", "from-env")

	app := &application.Mock{}
	cmd := NewCommand(app)
	require.NoError(t, cmd.ParseFlags([]string{"--auth"}))
	cfg, err := parseConfig(cmd, app)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr())
	assert.Equal(t, "from-env", cfg.APIKey)

	cmd = NewCommand(app)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "7100"}))
	cfg, err = parseConfig(cmd, app)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port, "flag wins over HTTP_PORT")
}

func TestParseConfigRejects(t *testing.T) {
	t.Setenv("API_KEY", "")

	app := &application.Mock{}
	cmd := NewCommand(app)
	require.NoError(t, cmd.ParseFlags([]string{"--auth"}))
	_, err := parseConfig(cmd, app)
	assert.Error(t, err, "auth without a key")

	t.Setenv("HTTP_PORT", "http")
	cmd = NewCommand(app)
	require.NoError(t, cmd.ParseFlags(nil))
	_, err = parseConfig(cmd, app)
	assert.Error(t, err)
}

func TestParsePort(t *testing.T) {
	port, err := parsePort("8081")
	require.NoError(t, err)
	assert.Equal(t, 8081, port)

	for _, bad := range []string{"", "0", "65536", "eighty"} {
		_, err := parsePort(bad)
		assert.Error(t, err, bad)
	}
}
