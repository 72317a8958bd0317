// YAML config loader with CUE validation integration
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPAddr serves the front end and the WebSocket egress.
	DefaultHTTPAddr = ":3000"
	// DefaultUDPAddr receives simulation state datagrams.
	DefaultUDPAddr = ":9273"
	// DefaultSendQueue is the per-subscriber outbound queue length.
	DefaultSendQueue = 256
)

//go:embed relay.cue
var schemaSource []byte

// Config is the relay configuration.
type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	UDPAddr       string `yaml:"udp_addr"`
	StaticDir     string `yaml:"static_dir"`
	SendQueue     int    `yaml:"send_queue"`
	UDPReadBuffer int    `yaml:"udp_read_buffer"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTPAddr:  DefaultHTTPAddr,
		UDPAddr:   DefaultUDPAddr,
		StaticDir: "web/dist",
		SendQueue: DefaultSendQueue,
		LogLevel:  "info",
	}
}

// Load reads a YAML config, validates it against the embedded CUE schema and
// merges it over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read YAML config: %w", err)
	}
	if err := ValidateWithCue(path, data); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	return cfg, nil
}

// ValidateWithCue validates YAML bytes against the #Config definition.
func ValidateWithCue(filename string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile CUE schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	f, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	val := ctx.BuildFile(f)
	if err := val.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from RELAY_HTTP_ADDR, RELAY_UDP_ADDR and RELAY_STATIC_DIR.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("RELAY_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("RELAY_UDP_ADDR"); v != "" {
		c.UDPAddr = v
	}
	if v := os.Getenv("RELAY_STATIC_DIR"); v != "" {
		c.StaticDir = v
	}
}

// Validate checks values that may have been set outside the YAML file.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("http address is required")
	}
	if strings.TrimSpace(c.UDPAddr) == "" {
		return fmt.Errorf("udp address is required")
	}
	if c.SendQueue <= 0 {
		return fmt.Errorf("send queue must be positive, got %d", c.SendQueue)
	}
	if c.UDPReadBuffer < 0 {
		return fmt.Errorf("udp read buffer must not be negative, got %d", c.UDPReadBuffer)
	}
	return nil
}
