// Package config loads the configuration recognized by a compute-tier node:
// its place in the consensus group, the peers it replicates with, and the
// block-assembly limits every node in the cluster must agree on.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a compute node.
type Config struct {
	Node     NodeConfig     `mapstructure:"node"`
	Compute  ComputeConfig  `mapstructure:"compute"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	API      APIConfig      `mapstructure:"api"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// NodeConfig holds node-specific configuration.
type NodeConfig struct {
	ID       string `mapstructure:"id"`
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// PeerSpec names one member of the consensus group.
type PeerSpec struct {
	Address string `mapstructure:"address"`
}

// ComputeConfig carries the options spec.md §6 names explicitly: this node's
// index in the consensus group, the peer list, and the timers/limits every
// replica must apply identically.
type ComputeConfig struct {
	NodeIdx            uint64        `mapstructure:"node_idx"`
	Nodes              []PeerSpec    `mapstructure:"nodes"`
	RaftEnabled        bool          `mapstructure:"raft"`
	RaftTickTimeout    time.Duration `mapstructure:"raft_tick_timeout"`
	TransactionTimeout time.Duration `mapstructure:"transaction_timeout"`
	SeedUTXO           []string      `mapstructure:"seed_utxo"`
	BlockSizeInTx      int           `mapstructure:"block_size_in_tx"`
	TxPoolLimit        int           `mapstructure:"tx_pool_limit"`
}

// StorageConfig configures the local (Badger-backed) finalized-block store.
type StorageConfig struct {
	Path      string `mapstructure:"path"`
	CacheSize int64  `mapstructure:"cache_size"`
	Sync      bool   `mapstructure:"sync"`
}

// ArchiveConfig configures the optional S3-compatible archival sink for
// finalized blocks.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// APIConfig configures the ambient status/health surface. This is distinct
// from the wallet/block-query API, which stays out of scope.
type APIConfig struct {
	GRPCAddress   string `mapstructure:"grpc_address"`
	StatusAddress string `mapstructure:"status_address"`
}

// SecurityConfig configures at-rest encryption for archived blocks.
type SecurityConfig struct {
	EncryptArchive bool `mapstructure:"encrypt_archive"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DefaultConfig returns a default configuration for a single, non-replicated
// node (the degenerate mode described by spec.md §4.A).
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:       "",
			DataDir:  "./data",
			LogLevel: "info",
		},
		Compute: ComputeConfig{
			NodeIdx:            0,
			Nodes:              []PeerSpec{},
			RaftEnabled:        false,
			RaftTickTimeout:    200 * time.Millisecond,
			TransactionTimeout: 500 * time.Millisecond,
			SeedUTXO:           []string{},
			BlockSizeInTx:      1000,
			TxPoolLimit:        10_000,
		},
		Storage: StorageConfig{
			Path:      "./data/blocks",
			CacheSize: 64 * 1024 * 1024,
			Sync:      true,
		},
		Archive: ArchiveConfig{
			Enabled:   false,
			Endpoint:  "localhost:9000",
			Bucket:    "compute-blocks",
			AccessKey: "compute",
			SecretKey: "compute123",
			UseSSL:    false,
		},
		API: APIConfig{
			GRPCAddress:   "0.0.0.0:9090",
			StatusAddress: "0.0.0.0:9180",
		},
		Security: SecurityConfig{
			EncryptArchive: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// LoadConfig loads configuration from file and environment variables,
// layered over DefaultConfig.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	v.SetDefault("node.data_dir", cfg.Node.DataDir)
	v.SetDefault("node.log_level", cfg.Node.LogLevel)
	v.SetDefault("compute.node_idx", cfg.Compute.NodeIdx)
	v.SetDefault("compute.raft", cfg.Compute.RaftEnabled)
	v.SetDefault("compute.raft_tick_timeout", cfg.Compute.RaftTickTimeout)
	v.SetDefault("compute.transaction_timeout", cfg.Compute.TransactionTimeout)
	v.SetDefault("compute.seed_utxo", cfg.Compute.SeedUTXO)
	v.SetDefault("compute.block_size_in_tx", cfg.Compute.BlockSizeInTx)
	v.SetDefault("compute.tx_pool_limit", cfg.Compute.TxPoolLimit)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.cache_size", cfg.Storage.CacheSize)
	v.SetDefault("storage.sync", cfg.Storage.Sync)
	v.SetDefault("archive.enabled", cfg.Archive.Enabled)
	v.SetDefault("archive.endpoint", cfg.Archive.Endpoint)
	v.SetDefault("archive.bucket", cfg.Archive.Bucket)
	v.SetDefault("archive.access_key", cfg.Archive.AccessKey)
	v.SetDefault("archive.secret_key", cfg.Archive.SecretKey)
	v.SetDefault("archive.use_ssl", cfg.Archive.UseSSL)
	v.SetDefault("api.grpc_address", cfg.API.GRPCAddress)
	v.SetDefault("api.status_address", cfg.API.StatusAddress)
	v.SetDefault("security.encrypt_archive", cfg.Security.EncryptArchive)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetEnvPrefix("COMPUTE")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// ClusterSize returns the number of members of the consensus group, treating
// an empty peer list as the single-node degenerate case (spec.md §4.A).
func (c *ComputeConfig) ClusterSize() int {
	if len(c.Nodes) == 0 {
		return 1
	}
	return len(c.Nodes)
}
