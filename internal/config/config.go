package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ctxgraph/internal/pathutil"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all ctxgraph configuration.
type Config struct {
	// Workspace anchors relative references and relative roots.
	Workspace string `yaml:"workspace"`

	// Roots are the corpus directories scanned by the builder.
	Roots []string `yaml:"roots"`

	// Extensions is the file-extension allow-list, including the dot.
	Extensions []string `yaml:"extensions"`

	// Snapshot persistence
	Cache CacheConfig `yaml:"cache"`

	// External reference loading
	External ExternalConfig `yaml:"external"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Metrics
	Metrics MetricsConfig `yaml:"metrics"`
}

// CacheConfig configures the index snapshot.
type CacheConfig struct {
	Path    string `yaml:"path"`    // relative paths are anchored at the workspace
	Backend string `yaml:"backend"` // json, sqlite; empty picks by extension
}

// MetricsConfig configures the prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace:  ".",
		Roots:      []string{"knowledge", "config", "routines"},
		Extensions: []string{".md", ".yaml", ".yml"},

		Cache: CacheConfig{
			Path:    filepath.Join(".cache", "knowledge_graph.json"),
			Backend: "",
		},

		External: ExternalConfig{
			CacheSize: 256,
			S3: S3Config{
				Region: "us-east-1",
				UseSSL: true,
			},
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultPath returns the config file location: $CTXGRAPH_CONFIG, then
// ~/.ctxgraph/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("CTXGRAPH_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ctxgraph", "config.yaml")
	}
	return filepath.Join(home, ".ctxgraph", "config.yaml")
}

// Load loads configuration from a YAML file. A .env file in the current
// directory is applied to the process environment first; a missing .env
// is ignored, a malformed one is an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Missing file: defaults plus environment
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if ws := os.Getenv("CTXGRAPH_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if roots := os.Getenv("CTXGRAPH_ROOTS"); roots != "" {
		c.Roots = filepath.SplitList(roots)
	}
	if cache := os.Getenv("CTXGRAPH_CACHE"); cache != "" {
		c.Cache.Path = cache
	}
	if level := os.Getenv("CTXGRAPH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Object storage credentials
	if endpoint := os.Getenv("CTXGRAPH_S3_ENDPOINT"); endpoint != "" {
		c.External.S3.Endpoint = endpoint
	}
	if ssl := os.Getenv("CTXGRAPH_S3_SSL"); ssl != "" {
		if v, err := strconv.ParseBool(ssl); err == nil {
			c.External.S3.UseSSL = v
		}
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		c.External.S3.AccessKey = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		c.External.S3.SecretKey = secret
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.External.S3.Region = region
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		c.External.GCS.CredentialsFile = creds
		c.External.GCS.Enabled = true
	}
}

// ValidBackends lists the supported snapshot backends.
var ValidBackends = []string{"", "json", "sqlite"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workspace) == "" {
		return fmt.Errorf("%w: workspace is empty", ErrInvalid)
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("%w: no corpus roots configured", ErrInvalid)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: extension allow-list is empty", ErrInvalid)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalid, ext)
		}
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("%w: cache path is empty", ErrInvalid)
	}

	validBackend := false
	for _, b := range ValidBackends {
		if c.Cache.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("%w: invalid cache backend: %s (valid: json, sqlite)", ErrInvalid, c.Cache.Backend)
	}

	if c.External.CacheSize < 0 {
		return fmt.Errorf("%w: external cache size must not be negative", ErrInvalid)
	}

	return c.Logging.Validate()
}

// Paths returns the normalizer used for every reference and root in this
// configuration. The workspace itself may start with ~ and is made absolute.
func (c *Config) Paths() (pathutil.Normalizer, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	cwd, err := os.Getwd()
	if err != nil {
		return pathutil.Normalizer{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	ws := pathutil.Normalizer{Home: home, Workspace: cwd}.Expand(c.Workspace)
	return pathutil.Normalizer{Home: home, Workspace: ws}, nil
}

// RootPaths returns the expanded corpus roots.
func (c *Config) RootPaths(n pathutil.Normalizer) []string {
	out := make([]string, 0, len(c.Roots))
	for _, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, n.Expand(r))
	}
	return out
}

// CachePath returns the expanded snapshot location.
func (c *Config) CachePath(n pathutil.Normalizer) string {
	return n.Expand(c.Cache.Path)
}
