package gateway

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default upstream coordinates match the deployment this gateway was first
// built against; override with UPSTREAM / UPSTREAM_PORT.
const (
	DefaultUpstreamHost = "gpt-oss-model.railway.internal"
	DefaultUpstreamPort = "11434"
)

// Config is the gateway configuration. Overlay order is defaults, then the
// TOML file, then the environment, then command-line flags.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Upstream inference server hostname and port. The gateway talks
	// plain HTTP to host:port unless UpstreamURL overrides the base.
	UpstreamHost string
	UpstreamPort string

	// UpstreamURL, when set, is used verbatim as the upstream base
	// (e.g., "https://inference.internal:8443").
	UpstreamURL string

	// APIKey is the shared bearer secret. Empty disables auth entirely.
	APIKey string

	// ProbeTimeout bounds dialect detection and health probes.
	ProbeTimeout time.Duration

	// DetectTTL is how long a detected dialect is trusted before the
	// next chat request re-probes.
	DetectTTL time.Duration
}

// DefaultConfig returns the built-in defaults before any overlay.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		UpstreamHost: DefaultUpstreamHost,
		UpstreamPort: DefaultUpstreamPort,
		ProbeTimeout: 10 * time.Second,
		DetectTTL:    30 * time.Second,
	}
}

// fileConfig is the TOML shape of the config file. Durations are whole
// seconds to keep the file format plain.
type fileConfig struct {
	Listen              string `toml:"listen"`
	Upstream            string `toml:"upstream"`
	UpstreamPort        string `toml:"upstream_port"`
	UpstreamURL         string `toml:"upstream_url"`
	APIKey              string `toml:"api_key"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
	DetectTTLSeconds    int    `toml:"detect_ttl_seconds"`
}

// LoadFile overlays c with any values set in the TOML file at path.
func (c Config) LoadFile(path string) (Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return c, fmt.Errorf("decode config file: %w", err)
	}

	if fc.Listen != "" {
		c.ListenAddr = fc.Listen
	}
	if fc.Upstream != "" {
		c.UpstreamHost = fc.Upstream
	}
	if fc.UpstreamPort != "" {
		c.UpstreamPort = fc.UpstreamPort
	}
	if fc.UpstreamURL != "" {
		c.UpstreamURL = fc.UpstreamURL
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.ProbeTimeoutSeconds > 0 {
		c.ProbeTimeout = time.Duration(fc.ProbeTimeoutSeconds) * time.Second
	}
	if fc.DetectTTLSeconds > 0 {
		c.DetectTTL = time.Duration(fc.DetectTTLSeconds) * time.Second
	}
	return c, nil
}

// FromEnv overlays c with the recognized environment variables: UPSTREAM,
// UPSTREAM_PORT and API_KEY. An unset (or empty) API_KEY leaves auth
// disabled.
func (c Config) FromEnv() Config {
	if v := os.Getenv("UPSTREAM"); v != "" {
		c.UpstreamHost = v
	}
	if v := os.Getenv("UPSTREAM_PORT"); v != "" {
		c.UpstreamPort = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.APIKey = v
	}
	return c
}

// BaseURL is the upstream base the gateway forwards to, e.g.
// "http://localhost:11434".
func (c Config) BaseURL() string {
	if c.UpstreamURL != "" {
		return c.UpstreamURL
	}
	return "http://" + c.UpstreamHost + ":" + c.UpstreamPort
}
