package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"maestro/internal/executor"
	"maestro/internal/feed"
	"maestro/internal/journal"
	"maestro/internal/model"
	"maestro/internal/optimizer"
	"maestro/internal/risk"
	"maestro/internal/schema"
	"maestro/internal/strategy"
	"maestro/pkg/conn"
)

// StoreBackend selects the state store implementation.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// FeedKind selects the data processor implementation.
type FeedKind string

const (
	FeedSynthetic FeedKind = "synthetic"
	FeedFixture   FeedKind = "fixture"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	SystemID             string           `json:"systemId"`
	CredentialPath       string           `json:"credentialPath"`
	CycleIntervalSeconds int              `json:"cycleIntervalSeconds"`
	LiveTrading          *bool            `json:"liveTrading"`
	Store                StoreConfig      `json:"store"`
	Registry             RegistryConfig   `json:"registry"`
	Journal              *JournalConfig   `json:"journal"`
	Feed                 *FeedConfig      `json:"feed"`
	Model                *ModelConfig     `json:"model"`
	Strategy             *StrategyConfig  `json:"strategy"`
	Optimizer            *OptimizerConfig `json:"optimizer"`
	Executor             *ExecutorConfig  `json:"executor"`
	Risk                 risk.Config      `json:"risk"`
}

// StoreConfig selects and configures the state store backend.
type StoreConfig struct {
	Backend  StoreBackend   `json:"backend"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

// PostgresConfig describes a PostgreSQL connection.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// RedisConfig describes a Redis connection.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// RegistryConfig defines symbol mappings.
type RegistryConfig struct {
	Symbols []SymbolConfig `json:"symbols"`
}

// SymbolConfig describes a symbol entry.
type SymbolConfig struct {
	Name  string           `json:"name"`
	Scale schema.ScaleSpec `json:"scale"`
}

// JournalConfig configures the cycle journal.
type JournalConfig struct {
	Enabled           bool   `json:"enabled"`
	Dir               string `json:"dir"`
	FilePrefix        string `json:"filePrefix"`
	SegmentMaxBytes   int64  `json:"segmentMaxBytes"`
	QueueSize         int    `json:"queueSize"`
	BufferSize        int    `json:"bufferSize"`
	FlushIntervalMs   int    `json:"flushIntervalMs"`
	SyncIntervalMs    int    `json:"syncIntervalMs"`
	SegmentMaxMinutes int    `json:"segmentMaxMinutes"`
}

// FeedConfig selects and configures the data processor.
type FeedConfig struct {
	Kind        FeedKind             `json:"kind"`
	Synthetic   feed.SyntheticConfig `json:"synthetic"`
	FixturePath string               `json:"fixturePath"`
}

// ModelConfig configures the model builder.
type ModelConfig struct {
	Momentum model.MomentumConfig `json:"momentum"`
}

// StrategyConfig configures the strategy generator.
type StrategyConfig struct {
	Threshold strategy.ThresholdConfig `json:"threshold"`
}

// OptimizerConfig configures the optimizer.
type OptimizerConfig struct {
	Feedback optimizer.FeedbackConfig `json:"feedback"`
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	Paper executor.PaperConfig `json:"paper"`
}

// credentialFile holds secrets kept out of the main config.
type credentialFile struct {
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"postgresPassword"`
	RedisPassword    string `json:"redisPassword"`
}

// StoreSpec is the resolved store selection.
type StoreSpec struct {
	Backend  StoreBackend
	Postgres conn.PostgresOption
	Redis    conn.RedisOption
}

// FeedSpec is the resolved feed selection.
type FeedSpec struct {
	Kind        FeedKind
	Synthetic   feed.SyntheticConfig
	FixturePath string
}

// Loaded is the resolved configuration, immutable after Load.
type Loaded struct {
	SystemID      string
	CycleInterval time.Duration
	LiveTrading   bool
	Registry      *schema.Registry
	Store         StoreSpec
	Journal       *journal.Config
	Feed          FeedSpec
	Model         model.MomentumConfig
	Strategy      strategy.ThresholdConfig
	Optimizer     optimizer.FeedbackConfig
	Executor      executor.PaperConfig
	Risk          risk.Config
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and builds the runtime view.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.SystemID == "" {
		return Loaded{}, fmt.Errorf("systemId is empty")
	}
	if cfg.CycleIntervalSeconds <= 0 {
		return Loaded{}, fmt.Errorf("cycleIntervalSeconds must be > 0")
	}

	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}

	storeSpec, err := resolveStore(cfg.Store, cfg.CredentialPath)
	if err != nil {
		return Loaded{}, err
	}

	journalCfg, err := resolveJournal(cfg.Journal)
	if err != nil {
		return Loaded{}, err
	}

	feedSpec, err := resolveFeed(cfg.Feed)
	if err != nil {
		return Loaded{}, err
	}

	live := false
	if cfg.LiveTrading != nil {
		live = *cfg.LiveTrading
	}

	return Loaded{
		SystemID:      cfg.SystemID,
		CycleInterval: time.Duration(cfg.CycleIntervalSeconds) * time.Second,
		LiveTrading:   live,
		Registry:      registry,
		Store:         storeSpec,
		Journal:       journalCfg,
		Feed:          feedSpec,
		Model:         resolveModel(cfg.Model),
		Strategy:      resolveStrategy(cfg.Strategy),
		Optimizer:     resolveOptimizer(cfg.Optimizer),
		Executor:      resolveExecutor(cfg.Executor),
		Risk:          cfg.Risk,
	}, nil
}

func buildRegistry(cfg RegistryConfig) (*schema.Registry, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("registry.symbols is empty")
	}
	reg := schema.NewRegistry()
	for _, sym := range cfg.Symbols {
		if err := validateScale(sym.Scale); err != nil {
			return nil, fmt.Errorf("invalid scale for %s: %w", sym.Name, err)
		}
		if _, err := reg.AddSymbol(sym.Name, sym.Scale); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func validateScale(scale schema.ScaleSpec) error {
	if scale.PriceScale < 0 || scale.QuantityScale < 0 || scale.NotionalScale < 0 || scale.FeeScale < 0 {
		return fmt.Errorf("scale must be >= 0")
	}
	return nil
}

func resolveStore(cfg StoreConfig, credentialPath string) (StoreSpec, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = StoreMemory
	}

	var cred credentialFile
	if credentialPath != "" {
		data, err := os.ReadFile(credentialPath)
		if err != nil {
			return StoreSpec{}, fmt.Errorf("read credentialPath: %w", err)
		}
		if err := json.Unmarshal(data, &cred); err != nil {
			return StoreSpec{}, fmt.Errorf("parse credentialPath: %w", err)
		}
	}

	spec := StoreSpec{Backend: backend}
	switch backend {
	case StoreMemory:
	case StorePostgres:
		if cfg.Postgres.Database == "" {
			return StoreSpec{}, fmt.Errorf("store.postgres.database is empty")
		}
		user := cfg.Postgres.User
		if cred.PostgresUser != "" {
			user = cred.PostgresUser
		}
		password := cfg.Postgres.Password
		if cred.PostgresPassword != "" {
			password = cred.PostgresPassword
		}
		spec.Postgres = conn.PostgresOption{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     user,
			Password: password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}
	case StoreRedis:
		password := cfg.Redis.Password
		if cred.RedisPassword != "" {
			password = cred.RedisPassword
		}
		spec.Redis = conn.RedisOption{
			Addr:     cfg.Redis.Addr,
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: password,
			DB:       cfg.Redis.DB,
		}
	default:
		return StoreSpec{}, fmt.Errorf("store.backend unknown: %s", backend)
	}
	return spec, nil
}

func resolveJournal(cfg *JournalConfig) (*journal.Config, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("journal.dir is empty")
	}
	out := journal.DefaultConfig(cfg.Dir)
	if cfg.FilePrefix != "" {
		out.FilePrefix = cfg.FilePrefix
	}
	if cfg.SegmentMaxBytes > 0 {
		out.SegmentMaxBytes = cfg.SegmentMaxBytes
	}
	if cfg.QueueSize > 0 {
		out.QueueSize = cfg.QueueSize
	}
	if cfg.BufferSize > 0 {
		out.BufferSize = cfg.BufferSize
	}
	if cfg.FlushIntervalMs > 0 {
		out.FlushInterval = time.Duration(cfg.FlushIntervalMs) * time.Millisecond
	}
	if cfg.SyncIntervalMs > 0 {
		out.SyncInterval = time.Duration(cfg.SyncIntervalMs) * time.Millisecond
	}
	if cfg.SegmentMaxMinutes > 0 {
		out.SegmentMaxDuration = time.Duration(cfg.SegmentMaxMinutes) * time.Minute
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func resolveFeed(cfg *FeedConfig) (FeedSpec, error) {
	spec := FeedSpec{
		Kind: FeedSynthetic,
		Synthetic: feed.SyntheticConfig{
			BasePrice: 10_000_00,
			BaseSize:  1_000_000,
			Spread:    10,
			DriftBps:  20,
		},
	}
	if cfg == nil {
		return spec, nil
	}
	if cfg.Kind != "" {
		spec.Kind = cfg.Kind
	}
	switch spec.Kind {
	case FeedSynthetic:
		if cfg.Synthetic.BasePrice > 0 {
			spec.Synthetic = cfg.Synthetic
		}
	case FeedFixture:
		if cfg.FixturePath == "" {
			return FeedSpec{}, fmt.Errorf("feed.fixturePath is empty")
		}
		spec.FixturePath = cfg.FixturePath
	default:
		return FeedSpec{}, fmt.Errorf("feed.kind unknown: %s", cfg.Kind)
	}
	return spec, nil
}

func resolveModel(cfg *ModelConfig) model.MomentumConfig {
	out := model.MomentumConfig{ConfidenceBps: 7000}
	if cfg != nil && cfg.Momentum.ConfidenceBps > 0 {
		out = cfg.Momentum
	}
	return out
}

func resolveStrategy(cfg *StrategyConfig) strategy.ThresholdConfig {
	out := strategy.ThresholdConfig{
		EntryThresholdBps: 5,
		MinConfidenceBps:  5000,
		BaseQty:           schema.Quantity(100_000),
	}
	if cfg != nil && cfg.Threshold.EntryThresholdBps > 0 {
		out = cfg.Threshold
	}
	return out
}

func resolveOptimizer(cfg *OptimizerConfig) optimizer.FeedbackConfig {
	out := optimizer.FeedbackConfig{
		MaxActive:        4,
		InitialWeightBps: 10000,
		StepBps:          500,
		MinWeightBps:     1000,
		MaxWeightBps:     20000,
	}
	if cfg != nil && cfg.Feedback.MaxActive > 0 {
		out = cfg.Feedback
	}
	return out
}

func resolveExecutor(cfg *ExecutorConfig) executor.PaperConfig {
	out := executor.PaperConfig{FirstOrderID: 1001, FeeBps: 10}
	if cfg != nil {
		out = cfg.Paper
	}
	return out
}
