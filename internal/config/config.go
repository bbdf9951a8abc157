package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/epistemia/internal/model"
)

// EnvPrefix is prepended to every environment override, e.g. EPISTEMIA_NLI_MODEL
const EnvPrefix = "EPISTEMIA"

// Config holds the full application configuration.
type Config struct {
	Pipeline model.PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	NLI      model.NLIConfig      `yaml:"nli" mapstructure:"nli"`
	Cache    CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Batch    BatchConfig          `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig            `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures NLI result memoization.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir      string `yaml:"dir" mapstructure:"dir"` // Empty keeps the cache in memory
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// BatchConfig configures multi-document runs.
type BatchConfig struct {
	Workers     int `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"` // Per document, 0 disables
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	pipeline := model.DefaultPipelineConfig()
	nli := model.DefaultNLIConfig()

	v.SetDefault("pipeline.mode", pipeline.Mode)
	v.SetDefault("pipeline.workers", pipeline.Workers)
	v.SetDefault("pipeline.ablation.disable_nli", false)
	v.SetDefault("pipeline.ablation.disable_canonical_override", false)
	v.SetDefault("pipeline.ablation.disable_cross_claim", false)
	v.SetDefault("pipeline.ablation.disable_overconfidence", false)
	v.SetDefault("pipeline.reproducibility.deterministic", pipeline.Reproducibility.Deterministic)
	v.SetDefault("pipeline.reproducibility.fixed_seed", pipeline.Reproducibility.FixedSeed)
	v.SetDefault("nli.provider", nli.Provider)
	v.SetDefault("nli.model", nli.Model)
	v.SetDefault("nli.api_key", "")
	v.SetDefault("nli.base_url", "")
	v.SetDefault("nli.timeout", nli.Timeout)
	v.SetDefault("nli.requests_per_second", nli.RequestsPerSecond)
	v.SetDefault("nli.burst", nli.Burst)
	v.SetDefault("nli.http_proxy", "")
	v.SetDefault("nli.https_proxy", "")
	v.SetDefault("nli.no_proxy", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.timeout_secs", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from file and environment. An explicit path must
// exist; otherwise ./epistemia.yaml and $HOME/.epistemia/config.yaml are
// tried in that order and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("nli.api_key", EnvPrefix+"_NLI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// UsedFile returns the file Load would read when no path is given, or ""
func UsedFile(path string) string {
	if path != "" {
		return path
	}
	return findConfigFile()
}

// DefaultFilePath is where `config init` writes
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: find home directory")
	}
	return filepath.Join(home, ".epistemia", "config.yaml"), nil
}

func findConfigFile() string {
	candidates := []string{"epistemia.yaml"}
	if home, err := DefaultFilePath(); err == nil {
		candidates = append(candidates, home)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
