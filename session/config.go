package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/poller"
	"gopkg.in/yaml.v3"
)

// Config is a configuration of the client session.
type Config struct {
	RPC      RPCConfig     `yaml:"rpc"`
	Contract string        `yaml:"contract"`
	Wallet   WalletConfig  `yaml:"wallet"`
	Poller   PollerConfig  `yaml:"poller"`
	Sync     SyncConfig    `yaml:"sync"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// RPCConfig configures connection to Neo RPC node. WebSocket endpoints
// (ws:// and wss://) enable block subscriptions.
type RPCConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WalletConfig points to the account transactions are signed with. Session
// is read-only if Path is empty.
type WalletConfig struct {
	Path     string `yaml:"path"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

// PollerConfig configures transaction confirmation.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SyncConfig configures request list synchronization.
type SyncConfig struct {
	Interval  time.Duration `yaml:"interval"`
	CacheSize int           `yaml:"cache_size"`
	// Path to SQLite database, rows are not persisted if empty.
	DB string `yaml:"db"`
}

// MetricsConfig configures Prometheus endpoint, disabled if Address is
// empty.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		RPC: RPCConfig{
			Endpoint:       "http://localhost:30333",
			DialTimeout:    5 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Poller: PollerConfig{
			Interval: poller.DefaultInterval,
			Timeout:  2 * time.Minute,
		},
		Sync: SyncConfig{
			Interval:  eventsync.DefaultInterval,
			CacheSize: eventsync.DefaultCacheSize,
		},
	}
}

// LoadConfig reads YAML configuration file over the defaults. Empty path
// returns defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.RPC.Endpoint == "":
		return errors.New("missing RPC endpoint")
	case c.Contract == "":
		return errors.New("missing contract address")
	case c.Poller.Interval < 0, c.Poller.Timeout < 0, c.Sync.Interval < 0:
		return errors.New("negative durations are not allowed")
	}

	if _, err := ParseHash160(c.Contract); err != nil {
		return fmt.Errorf("invalid contract address: %w", err)
	}

	return nil
}

// ParseHash160 parses script hash from Neo address or LE hex string
// (optionally 0x-prefixed).
func ParseHash160(s string) (util.Uint160, error) {
	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}

	return util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
}
