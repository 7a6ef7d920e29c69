package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "tripgraph/domain/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, StoreBadger, cfg.StoreBackend)
	assert.False(t, cfg.IsLambda)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfig_ProductionDefaultsToDynamoDB(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TABLE_NAME", "trips")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "trip-api")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "trips", cfg.DynamoDBTable)
	assert.True(t, cfg.IsLambda)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestConfig_ListingCacheOffUnderLambda(t *testing.T) {
	cfg := &Config{ListCacheTTL: 5}
	assert.Equal(t, 5, cfg.ListingCacheTTL())

	cfg.IsLambda = true
	assert.Zero(t, cfg.ListingCacheTTL())
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadPlannerConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://events.internal:9000
chain_mode: derived
reconcile_interval: 5s
breaker:
  failure_ratio: 0.5
`), 0o600))
	t.Setenv("TRIPCTL_API_URL", "")
	t.Setenv("TRIPCTL_CHAIN_MODE", "")
	t.Setenv("TRIPCTL_LISTEN", ":9999")

	cfg, err := LoadPlannerConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://events.internal:9000", cfg.APIURL)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 0.5, cfg.Breaker.FailureRatio)
	assert.Equal(t, uint32(3), cfg.Breaker.MaxRequests)
	assert.Equal(t, domainconfig.ChainModeDerived, cfg.DomainConfig().ChainMode)
}

func TestLoadPlannerConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TRIPCTL_API_URL", "")
	t.Setenv("TRIPCTL_CHAIN_MODE", "")

	cfg, err := LoadPlannerConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPlannerConfig().APIURL, cfg.APIURL)
	assert.Equal(t, domainconfig.ChainModeExplicit, cfg.DomainConfig().ChainMode)
}

func TestLoadPlannerConfig_Invalid(t *testing.T) {
	t.Setenv("TRIPCTL_API_URL", "")
	t.Setenv("TRIPCTL_CHAIN_MODE", "sideways")

	_, err := LoadPlannerConfig("")
	assert.Error(t, err)
}

func TestPlannerWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "tripctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	initial, err := LoadPlannerConfig(path)
	require.NoError(t, err)

	w, err := NewPlannerWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var seen []string
	w.OnChange(func(c *PlannerConfig) {
		mu.Lock()
		seen = append(seen, c.LogLevel)
		mu.Unlock()
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return w.GetConfig().LogLevel == "debug"
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "debug")
}

func TestPlannerWatcher_KeepsLastGoodConfig(t *testing.T) {
	t.Setenv("TRIPCTL_CHAIN_MODE", "")
	path := filepath.Join(t.TempDir(), "tripctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain_mode: explicit\n"), 0o600))

	initial, err := LoadPlannerConfig(path)
	require.NoError(t, err)
	w, err := NewPlannerWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("chain_mode: [broken\n"), 0o600))
	time.Sleep(2 * watchDebounce)

	assert.Same(t, initial, w.GetConfig())
}
