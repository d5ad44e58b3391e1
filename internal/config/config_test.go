package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WBUY_API_URL", "https://example.test/api/v1/")
	t.Setenv("WBUY_TOKEN", "  secret ")
	t.Setenv("DEFAULT_STATUSES", "1, 2,,3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api/v1", cfg.APIURL)
	assert.Equal(t, "secret", cfg.Token)
	assert.True(t, cfg.HasToken())
	assert.Equal(t, 40*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 100, cfg.DefaultPageSize)
	assert.Equal(t, 8, cfg.DefaultMaxPages)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.DefaultStatuses)
	assert.Equal(t, DefaultProbeMenu(), cfg.ProbeMenu())
}

func TestLoad_MissingTokenIsNotFatal(t *testing.T) {
	t.Setenv("WBUY_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.HasToken())
}

func TestLoadProbeMenu_MergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoints: ["pedidos"]
header_schemes:
  - name: custom
    headers:
      X-Api-Key: "{token}"
`), 0o600))

	menu, err := LoadProbeMenu(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"pedidos"}, menu.Endpoints)
	require.Len(t, menu.HeaderSchemes, 1)
	assert.Equal(t, "{token}", menu.HeaderSchemes[0].Headers["X-Api-Key"])
	assert.Equal(t, DefaultProbeMenu().DetailTemplates, menu.DetailTemplates)
	assert.Equal(t, "status", menu.StatusParam)
}

func TestLoadProbeMenu_MissingFile(t *testing.T) {
	_, err := LoadProbeMenu(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefaultProbeMenu_BearerOrderFirst(t *testing.T) {
	menu := DefaultProbeMenu()
	assert.Equal(t, "order", menu.Endpoints[0])
	assert.Equal(t, "bearer", menu.HeaderSchemes[0].Name)
}

func TestConfig_WithProbeMenu(t *testing.T) {
	base := &Config{APIURL: "http://x"}
	menu := DefaultProbeMenu()
	menu.Endpoints = []string{"pedidos"}

	custom := base.WithProbeMenu(menu)
	assert.Equal(t, []string{"pedidos"}, custom.ProbeMenu().Endpoints)
	assert.Equal(t, DefaultProbeMenu().Endpoints, base.ProbeMenu().Endpoints)
}
