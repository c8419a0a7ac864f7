package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.Nil(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	config, err := Load(filepath.Join(dir, DefaultConfigFile), true)
	require.Nil(t, err)
	require.Equal(t, ":3011", config.Server.Addr)
	require.Equal(t, int64(1_000_000), config.Stream.MaxChunkBytes)
	require.Equal(t, "video/mp4", config.Stream.VideoMime)
	require.Equal(t, filepath.Join(dir, "videos", "buenos_aires.mp4"), config.Stream.Video)
	require.False(t, config.CatalogEnabled())

	_, err = Load(filepath.Join(dir, "other.yaml"), false)
	require.NotNil(t, err)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
logLevel: debug
databasePath: /var/lib/vodstream
server:
  addr: "127.0.0.1:8080"
  readTimeout: 5s
  writeTimeout: 1m
stream:
  video: clip.webm
  videoMime: video/webm
  maxChunkBytes: 2048
  capExplicit: true
scanner:
  mediaRoot: media
  cron: "*/5 * * * *"
  extensions: [.mp4]
  workers: 2
`)
	config, err := Load(p, false)
	require.Nil(t, err)

	dir := filepath.Dir(p)
	require.Equal(t, "127.0.0.1:8080", config.Server.Addr)
	require.Equal(t, 5*time.Second, config.Server.ReadTimeout)
	require.Equal(t, time.Minute, config.Server.WriteTimeout)
	require.Equal(t, 10*time.Second, config.Server.ShutdownTimeout)
	require.Equal(t, filepath.Join(dir, "clip.webm"), config.Stream.Video)
	require.Equal(t, filepath.Join(dir, "media"), config.Scanner.MediaRoot)
	require.Equal(t, "/var/lib/vodstream", config.DatabasePath)
	require.Equal(t, []string{".mp4"}, config.Scanner.Extensions)
	require.True(t, config.CatalogEnabled())

	policy := config.ChunkPolicy()
	require.Equal(t, int64(2048), policy.MaxChunkBytes)
	require.True(t, policy.CapExplicit)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"log level":  func(c *Config) { c.LogLevel = "chatty" },
		"addr":       func(c *Config) { c.Server.Addr = "" },
		"timeout":    func(c *Config) { c.Server.ReadTimeout = -time.Second },
		"chunk":      func(c *Config) { c.Stream.MaxChunkBytes = 0 },
		"video":      func(c *Config) { c.Stream.Video = "" },
		"workers":    func(c *Config) { c.Scanner.MediaRoot = "/m"; c.Scanner.Workers = 0 },
		"extension":  func(c *Config) { c.Scanner.MediaRoot = "/m"; c.Scanner.Extensions = []string{"mp4"} },
		"extensions": func(c *Config) { c.Scanner.MediaRoot = "/m"; c.Scanner.Extensions = nil },
		"cron":       func(c *Config) { c.Scanner.MediaRoot = "/m"; c.Scanner.Cron = "every now and then" },
		"database":   func(c *Config) { c.Scanner.MediaRoot = "/m"; c.DatabasePath = "" },
	}
	require.Nil(t, Default().Validate())
	for name, mutate := range cases {
		c := Default()
		mutate(c)
		require.NotNil(t, c.Validate(), name)
	}
}

func TestLoadInvalidYaml(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"), false)
	require.NotNil(t, err)

	_, err = Load(writeConfig(t, "stream:\n  maxChunkBytes: -1\n"), false)
	require.NotNil(t, err)
}
