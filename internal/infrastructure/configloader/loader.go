package configloader

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FeeConfig holds the platform fee settings.
type FeeConfig struct {
	Bps       int64  `yaml:"bps"`
	Recipient string `yaml:"recipient"`
}

// NetworkNodeConfig holds configuration for a specific blockchain network.
type NetworkNodeConfig struct {
	Name            string   `yaml:"name"`            // e.g., "base"
	ChainID         uint64   `yaml:"chainID"`         // e.g., 8453
	RPCURL          string   `yaml:"rpcURL"`          // e.g., "https://mainnet.base.org"
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"` // tried in order when the primary fails
}

// RPCConfig holds settings shared by all chain clients.
type RPCConfig struct {
	ReadsPerSecond int `yaml:"readsPerSecond"`
}

// QuoteAPIConfig holds swap aggregator API specific configurations.
type QuoteAPIConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// PositionStoreConfig holds positions service specific configurations.
type PositionStoreConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// RelayConfig holds transaction relay specific configurations.
type RelayConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Fee           FeeConfig           `yaml:"fee"`
	RPC           RPCConfig           `yaml:"rpc"`
	QuoteAPI      QuoteAPIConfig      `yaml:"quoteAPI"`
	PositionStore PositionStoreConfig `yaml:"positionStore"`
	Relay         RelayConfig         `yaml:"relay"`
	Networks      []NetworkNodeConfig `yaml:"networks"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}

	if cfg.Fee.Bps <= 0 {
		cfg.Fee.Bps = 10
		logrus.Infof("Fee bps not set, defaulting to %d", cfg.Fee.Bps)
	}
	if cfg.Fee.Recipient == "" {
		return nil, fmt.Errorf("fee.recipient must be set")
	}
	if !common.IsHexAddress(cfg.Fee.Recipient) {
		return nil, fmt.Errorf("fee.recipient %q is not a valid address", cfg.Fee.Recipient)
	}

	if cfg.RPC.ReadsPerSecond <= 0 {
		cfg.RPC.ReadsPerSecond = 20
		logrus.Infof("RPC readsPerSecond not set, defaulting to %d", cfg.RPC.ReadsPerSecond)
	}

	if cfg.QuoteAPI.RequestTimeoutMillis == 0 {
		cfg.QuoteAPI.RequestTimeoutMillis = 10000
		logrus.Infof("QuoteAPI.RequestTimeoutMillis not set, defaulting to %d ms", cfg.QuoteAPI.RequestTimeoutMillis)
	}
	if cfg.PositionStore.RequestTimeoutMillis == 0 {
		cfg.PositionStore.RequestTimeoutMillis = 10000
		logrus.Infof("PositionStore.RequestTimeoutMillis not set, defaulting to %d ms", cfg.PositionStore.RequestTimeoutMillis)
	}
	if cfg.Relay.RequestTimeoutMillis == 0 {
		cfg.Relay.RequestTimeoutMillis = 15000
		logrus.Infof("Relay.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Relay.RequestTimeoutMillis)
	}

	if cfg.QuoteAPI.BaseURL == "" {
		return nil, fmt.Errorf("quoteAPI.baseURL must be set")
	}
	if cfg.PositionStore.BaseURL == "" {
		return nil, fmt.Errorf("positionStore.baseURL must be set")
	}
	if cfg.Relay.BaseURL == "" {
		return nil, fmt.Errorf("relay.baseURL must be set")
	}

	if len(cfg.Networks) == 0 {
		return nil, fmt.Errorf("at least one network must be configured")
	}
	for _, network := range cfg.Networks {
		if network.Name == "" || network.ChainID == 0 {
			return nil, fmt.Errorf("every network needs a name and a chainID")
		}
		if network.RPCURL == "" {
			logrus.Warnf("Network '%s' (ChainID: %d) has no RPC URL configured. Contract reads on it will fail.", network.Name, network.ChainID)
		}
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}
