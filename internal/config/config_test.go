package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maestro/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s failed, err: %+v", name, err)
	}
	return path
}

func baseFileConfig() FileConfig {
	return FileConfig{
		SystemID:             "maestro-test",
		CycleIntervalSeconds: 10,
		Registry: RegistryConfig{Symbols: []SymbolConfig{
			{Name: "BTC-USDT", Scale: schema.ScaleSpec{PriceScale: 2, QuantityScale: 6}},
		}},
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"systemId": "maestro-file",
		"cycleIntervalSeconds": 30,
		"liveTrading": true,
		"registry": {"symbols": [
			{"name": "BTC-USDT", "scale": {"PriceScale": 2, "QuantityScale": 6}},
			{"name": "ETH-USDT", "scale": {"PriceScale": 2, "QuantityScale": 6}}
		]}
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "maestro-file", loaded.SystemID)
	assert.Equal(t, 30*time.Second, loaded.CycleInterval)
	assert.True(t, loaded.LiveTrading)
	assert.Equal(t, 2, loaded.Registry.SymbolCount())
	assert.Equal(t, StoreMemory, loaded.Store.Backend)
}

func TestResolveDefaults(t *testing.T) {
	loaded, err := Resolve(baseFileConfig())
	require.NoError(t, err)

	// live trading defaults off
	assert.False(t, loaded.LiveTrading)
	assert.Nil(t, loaded.Journal)
	assert.Equal(t, FeedSynthetic, loaded.Feed.Kind)
	assert.Equal(t, int64(7000), loaded.Model.ConfidenceBps)
	assert.Equal(t, int64(5), loaded.Strategy.EntryThresholdBps)
	assert.Equal(t, 4, loaded.Optimizer.MaxActive)
	assert.Equal(t, uint64(1001), loaded.Executor.FirstOrderID)
}

func TestResolveValidation(t *testing.T) {
	cfg := baseFileConfig()
	cfg.SystemID = ""
	_, err := Resolve(cfg)
	require.ErrorContains(t, err, "systemId")

	cfg = baseFileConfig()
	cfg.CycleIntervalSeconds = 0
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "cycleIntervalSeconds")

	cfg = baseFileConfig()
	cfg.Registry.Symbols = nil
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "registry.symbols")

	cfg = baseFileConfig()
	cfg.Store.Backend = "dynamo"
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "store.backend")

	cfg = baseFileConfig()
	cfg.Store.Backend = StorePostgres
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "store.postgres.database")
}

func TestResolveCredentialOverride(t *testing.T) {
	credPath := writeFile(t, "credential.json", `{
		"postgresUser": "vault-user",
		"postgresPassword": "vault-pass"
	}`)

	cfg := baseFileConfig()
	cfg.CredentialPath = credPath
	cfg.Store = StoreConfig{
		Backend: StorePostgres,
		Postgres: PostgresConfig{
			Host:     "db.internal",
			Port:     5432,
			User:     "file-user",
			Database: "maestro",
		},
	}

	loaded, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "vault-user", loaded.Store.Postgres.User)
	assert.Equal(t, "vault-pass", loaded.Store.Postgres.Password)
	assert.Equal(t, "db.internal", loaded.Store.Postgres.Host)
}

func TestResolveCredentialPathMissing(t *testing.T) {
	cfg := baseFileConfig()
	cfg.CredentialPath = filepath.Join(t.TempDir(), "nope.json")
	_, err := Resolve(cfg)
	require.ErrorContains(t, err, "credentialPath")
}

func TestResolveJournal(t *testing.T) {
	dir := t.TempDir()
	cfg := baseFileConfig()
	cfg.Journal = &JournalConfig{
		Enabled:         true,
		Dir:             dir,
		FilePrefix:      "drill",
		QueueSize:       64,
		FlushIntervalMs: 250,
	}

	loaded, err := Resolve(cfg)
	require.NoError(t, err)
	require.NotNil(t, loaded.Journal)
	assert.Equal(t, dir, loaded.Journal.Dir)
	assert.Equal(t, "drill", loaded.Journal.FilePrefix)
	assert.Equal(t, 64, loaded.Journal.QueueSize)
	assert.Equal(t, 250*time.Millisecond, loaded.Journal.FlushInterval)

	// disabled journal resolves to nil
	cfg.Journal.Enabled = false
	loaded, err = Resolve(cfg)
	require.NoError(t, err)
	assert.Nil(t, loaded.Journal)

	cfg.Journal = &JournalConfig{Enabled: true}
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "journal.dir")
}

func TestResolveFeedFixture(t *testing.T) {
	cfg := baseFileConfig()
	cfg.Feed = &FeedConfig{Kind: FeedFixture, FixturePath: "testdata/ticks.json"}

	loaded, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, FeedFixture, loaded.Feed.Kind)
	assert.Equal(t, "testdata/ticks.json", loaded.Feed.FixturePath)

	cfg.Feed = &FeedConfig{Kind: FeedFixture}
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "feed.fixturePath")

	cfg.Feed = &FeedConfig{Kind: "replay"}
	_, err = Resolve(cfg)
	require.ErrorContains(t, err, "feed.kind")
}
