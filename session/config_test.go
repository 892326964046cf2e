package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/stretchr/testify/require"
)

const contractLE = "0b17008f52b7a0ea8c3d1f0e7c3e2a1b4d5c6e7f"

func writeConfig(t *testing.T, s string) string {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(s), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
		require.Equal(t, poller.DefaultInterval, cfg.Poller.Interval)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yml"))
		require.Error(t, err)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "rpc: [\n"))
		require.Error(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, `
rpc:
  endpoint: ws://localhost:40332/ws
  request_timeout: 3s
contract: `+contractLE+`
poller:
  interval: 250ms
sync:
  db: /tmp/ratings.db
  cache_size: 16
`))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		require.Equal(t, "ws://localhost:40332/ws", cfg.RPC.Endpoint)
		require.Equal(t, 3*time.Second, cfg.RPC.RequestTimeout)
		require.Equal(t, DefaultConfig().RPC.DialTimeout, cfg.RPC.DialTimeout)
		require.Equal(t, 250*time.Millisecond, cfg.Poller.Interval)
		require.Equal(t, DefaultConfig().Poller.Timeout, cfg.Poller.Timeout)
		require.Equal(t, "/tmp/ratings.db", cfg.Sync.DB)
		require.Equal(t, 16, cfg.Sync.CacheSize)
		require.True(t, isWebSocket(cfg.RPC.Endpoint))
	})
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Contract = contractLE
	require.NoError(t, valid.Validate())

	cfg := valid
	cfg.Contract = ""
	require.Error(t, cfg.Validate())

	cfg = valid
	cfg.Contract = "not a hash"
	require.Error(t, cfg.Validate())

	cfg = valid
	cfg.RPC.Endpoint = ""
	require.Error(t, cfg.Validate())

	cfg = valid
	cfg.Poller.Timeout = -time.Second
	require.Error(t, cfg.Validate())
}

func TestParseHash160(t *testing.T) {
	h, err := util.Uint160DecodeStringLE(contractLE)
	require.NoError(t, err)

	for _, s := range []string{contractLE, "0x" + contractLE, address.Uint160ToString(h)} {
		actual, err := ParseHash160(s)
		require.NoError(t, err, s)
		require.Equal(t, h, actual, s)
	}

	_, err = ParseHash160("NotAnAddress")
	require.Error(t, err)
}
