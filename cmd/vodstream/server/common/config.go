package common

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/sincaw/vodstream/cmd/vodstream/server/utils"
	"github.com/sincaw/vodstream/pkg/rangeserve"
)

const (
	DefaultConfigFile = ".config.yaml"

	defaultAddr     = ":3011"
	defaultVideo    = "videos/buenos_aires.mp4"
	defaultDatabase = "data"
	defaultCron     = "@every 10m"
	defaultWorkers  = 4
)

var (
	defaultExtensions = []string{".mp4", ".webm", ".mkv", ".mov", ".m4v"}
)

// Config for vodstream server behavior
type Config struct {
	Server  WebServerConfig `yaml:"server" json:"server"`
	Stream  StreamConfig    `yaml:"stream" json:"stream"`
	Scanner ScannerConfig   `yaml:"scanner" json:"scanner"`

	// debug, info, warn or error
	LogLevel string `yaml:"logLevel" json:"logLevel"`
	// badger directory of the resource catalog
	DatabasePath string `yaml:"databasePath" json:"-"`
}

// WebServerConfig for api server
type WebServerConfig struct {
	// web serving address (ip:port)
	Addr         string        `yaml:"addr" json:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout" json:"readTimeout"`
	// zero means no limit, a slow client may need long for one chunk
	WriteTimeout    time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// StreamConfig for range responses
type StreamConfig struct {
	// file served on /video
	Video     string `yaml:"video" json:"video"`
	VideoMime string `yaml:"videoMime" json:"videoMime"`
	// span served for an open ended range
	MaxChunkBytes int64 `yaml:"maxChunkBytes" json:"maxChunkBytes"`
	// cap explicit ranges to MaxChunkBytes too
	CapExplicit bool `yaml:"capExplicit" json:"capExplicit"`
}

// ScannerConfig for the media library scan job
type ScannerConfig struct {
	// catalog routes are disabled when MediaRoot is empty
	MediaRoot string `yaml:"mediaRoot" json:"mediaRoot"`
	// crontab like string, for scan job run schedule
	Cron       string   `yaml:"cron" json:"cron"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	// parallel file probes
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns configuration used when no file exists
func Default() *Config {
	return &Config{
		Server: WebServerConfig{
			Addr:            defaultAddr,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Stream: StreamConfig{
			Video:         defaultVideo,
			VideoMime:     rangeserve.DefaultMediaType,
			MaxChunkBytes: rangeserve.DefaultMaxChunkBytes,
		},
		Scanner: ScannerConfig{
			Cron:       defaultCron,
			Extensions: append([]string(nil), defaultExtensions...),
			Workers:    defaultWorkers,
		},
		LogLevel:     "info",
		DatabasePath: defaultDatabase,
	}
}

// Load reads yaml file at path over defaults.
// A missing file is not an error when allowMissing is set.
// Relative paths inside the file are resolved against its directory.
func Load(path string, allowMissing bool) (*Config, error) {
	config := Default()
	content, err := ioutil.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("parse config file %q fail: %v", path, err)
		}
	case os.IsNotExist(err) && allowMissing:
	default:
		return nil, fmt.Errorf("read config file fail %v", err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	config.resolvePaths(base)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) resolvePaths(base string) {
	c.DatabasePath = utils.AbsFrom(base, c.DatabasePath)
	c.Stream.Video = utils.AbsFrom(base, c.Stream.Video)
	c.Scanner.MediaRoot = utils.AbsFrom(base, c.Scanner.MediaRoot)
}

// ChunkPolicy returns policy for range responder
func (c *Config) ChunkPolicy() rangeserve.ChunkPolicy {
	return rangeserve.ChunkPolicy{
		MaxChunkBytes: c.Stream.MaxChunkBytes,
		CapExplicit:   c.Stream.CapExplicit,
	}
}

// CatalogEnabled reports if a media root is configured
func (c *Config) CatalogEnabled() bool {
	return c.Scanner.MediaRoot != ""
}

// Validate check whole configuration
func (c *Config) Validate() error {
	if _, err := utils.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Server.Valid(); err != nil {
		return err
	}
	if err := c.ChunkPolicy().Valid(); err != nil {
		return err
	}
	if c.Stream.Video == "" {
		return fmt.Errorf("stream video path required")
	}
	if c.CatalogEnabled() {
		if c.DatabasePath == "" {
			return fmt.Errorf("databasePath required when scanner is enabled")
		}
		return c.Scanner.Valid()
	}
	return nil
}

// Valid check server options
func (s WebServerConfig) Valid() error {
	if s.Addr == "" {
		return fmt.Errorf("server addr required")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("negative server timeout")
	}
	return nil
}

// Valid check scanner options
func (s ScannerConfig) Valid() error {
	if s.Workers < 1 {
		return fmt.Errorf("invalid scanner workers %d", s.Workers)
	}
	if len(s.Extensions) == 0 {
		return fmt.Errorf("scanner extensions required")
	}
	for _, ext := range s.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid extension %q, leading dot required", ext)
		}
	}
	if s.Cron != "" {
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			return fmt.Errorf("invalid scanner cron %q: %v", s.Cron, err)
		}
	}
	return nil
}
