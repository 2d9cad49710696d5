package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arcula/pkg/bip44"
	"arcula/pkg/errno"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
arcula:
  scheme: Schnorr
  traversal: dfs
  workers: 4
  verify_cache_ttl: 30s
seed:
  mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
template:
  BCH:
    - public: 1
      private: 2
    - public: 4
      private: 5
  eth:
    - public: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.App.Env)
	require.Equal(t, "schnorr", cfg.Arcula.Scheme)
	require.Equal(t, "dfs", cfg.Arcula.Traversal)
	require.Equal(t, 4, cfg.Arcula.Workers)
	require.Equal(t, 30*time.Second, cfg.Arcula.VerifyCacheTTL)
	require.Contains(t, cfg.Seed.Mnemonic, "about")

	require.Equal(t, []bip44.Account{{Public: 1, Private: 2}, {Public: 4, Private: 5}}, cfg.Template["BCH"])
	require.Equal(t, []bip44.Account{{Public: 3}}, cfg.Template["ETH"])
	require.Len(t, cfg.Template, 2)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "development", cfg.App.Env)
	require.Equal(t, "ecdsa", cfg.Arcula.Scheme)
	require.Equal(t, "bfs", cfg.Arcula.Traversal)
	require.Equal(t, 10*time.Minute, cfg.Arcula.VerifyCacheTTL)
	require.Equal(t, DefaultTemplate(), cfg.Template)
	require.Empty(t, cfg.Seed.Mnemonic)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ARCULA_ARCULA_SCHEME", "schnorr")
	t.Setenv("ARCULA_SEED_PASSPHRASE", "TREZOR")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "schnorr", cfg.Arcula.Scheme)
	require.Equal(t, "TREZOR", cfg.Seed.Passphrase)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"scheme":   "arcula:\n  scheme: rsa\n",
		"workers":  "arcula:\n  workers: -1\n",
		"coin":     "template:\n  doge:\n    - public: 1\n",
		"account":  "template:\n  btc:\n    - public: 0\n      private: 0\n",
		"env":      "app:\n  env: staging\n",
		"negative": "template:\n  btc:\n    - public: -3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.ErrorIs(t, err, errno.ErrInvalidConfig)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, errno.ErrInvalidConfig)
}
