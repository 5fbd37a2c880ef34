// Package marketconfig loads node configuration: built-in defaults, then
// an optional yaml file, then environment overrides, in that order.
package marketconfig

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration of one settlement node.
type Config struct {
	ListenAddr    string
	MarketAccount string
	NFTAccount    string

	StorageBackend     string // memory, snapshot or leveldb
	DataDir            string
	SnapshotPassphrase string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	LogLevel string
}

func Default() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8832",
		MarketAccount:  "market.test.near",
		NFTAccount:     "nft.test.near",
		StorageBackend: "snapshot",
		DataDir:        "data",

		RateLimitEnabled: true,
		RateLimitRPS:     30,
		RateLimitBurst:   60,

		LogLevel: "info",
	}
}

type fileConfig struct {
	Node      nodeSection      `yaml:"node"`
	Storage   storageSection   `yaml:"storage"`
	RateLimit rateLimitSection `yaml:"rateLimit"`
}

type nodeSection struct {
	ListenAddr    string `yaml:"listenAddr"`
	MarketAccount string `yaml:"marketAccount"`
	NFTAccount    string `yaml:"nftAccount"`
	LogLevel      string `yaml:"logLevel"`
}

type storageSection struct {
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"dataDir"`
	Passphrase string `yaml:"passphrase"`
}

type rateLimitSection struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoadFromPath resolves the effective configuration. A missing or
// unparsable file falls back to defaults rather than failing the boot;
// environment overrides apply either way.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates, "configs/marketd.yaml")
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		Merge(&cfg, parsed)
		break
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

// Merge folds file values into cfg, keeping defaults where the file is
// silent.
func Merge(cfg *Config, src fileConfig) {
	if src.Node.ListenAddr != "" {
		cfg.ListenAddr = src.Node.ListenAddr
	}
	if src.Node.MarketAccount != "" {
		cfg.MarketAccount = src.Node.MarketAccount
	}
	if src.Node.NFTAccount != "" {
		cfg.NFTAccount = src.Node.NFTAccount
	}
	if src.Node.LogLevel != "" {
		cfg.LogLevel = src.Node.LogLevel
	}
	if src.Storage.Backend != "" {
		cfg.StorageBackend = src.Storage.Backend
	}
	if src.Storage.DataDir != "" {
		cfg.DataDir = src.Storage.DataDir
	}
	if src.Storage.Passphrase != "" {
		cfg.SnapshotPassphrase = src.Storage.Passphrase
	}
	if src.RateLimit.Enabled != nil {
		cfg.RateLimitEnabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.RPS > 0 {
		cfg.RateLimitRPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst > 0 {
		cfg.RateLimitBurst = src.RateLimit.Burst
	}
}

// ApplyEnvOverrides lets the environment win over both defaults and file.
func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MARKETD_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_MARKET_ACCOUNT")); v != "" {
		cfg.MarketAccount = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_NFT_ACCOUNT")); v != "" {
		cfg.NFTAccount = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_STORAGE_BACKEND")); v != "" {
		cfg.StorageBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_SNAPSHOT_PASSPHRASE")); v != "" {
		cfg.SnapshotPassphrase = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_RATE_LIMIT_ENABLED")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimitEnabled = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_RATE_LIMIT_RPS")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			cfg.RateLimitRPS = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("MARKETD_RATE_LIMIT_BURST")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.RateLimitBurst = parsed
		}
	}
}
