package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Generator kinds accepted by ServerConfig.Generator.
const (
	GeneratorRules  = "rules"
	GeneratorEcho   = "echo"
	GeneratorOllama = "ollama"
)

// ServerConfig holds configuration for the chatpredict server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	DrainTimeout    time.Duration `yaml:"drain_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ConfigFile      string        `yaml:"-"`
	LogLevel        string        `yaml:"log_level"`
	RedisAddr       string        `yaml:"redis_addr"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	LandingTemplate string        `yaml:"landing_template"`
	MCPEnabled      bool          `yaml:"mcp_enabled"`

	Generator    string `yaml:"generator"`
	IntentsFile  string `yaml:"intents_file"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
	OllamaAPIKey string `yaml:"ollama_api_key"`
}

// SetDefaults initializes unset fields of c with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 30 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.Generator == "" {
		c.Generator = GeneratorRules
	}
	if c.OllamaURL == "" {
		c.OllamaURL = "http://127.0.0.1:11434"
	}
	if c.OllamaModel == "" {
		c.OllamaModel = "llama3"
	}
	if c.ConfigFile == "" {
		c.ConfigFile = DefaultConfigPath("server.yaml")
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := GetEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := GetEnv("METRICS_PORT", ""); v != "" {
		c.MetricsAddr = normalizeAddr(v)
	}
	if v := GetEnv("REQUEST_TIMEOUT", ""); v != "" {
		if d, err := parseSeconds(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := GetEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		}
	}
	if v := GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := GetEnv("CACHE_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = d
		}
	}
	if v := GetEnv("MAX_BODY_BYTES", ""); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxBodyBytes = n
		}
	}
	if v := GetEnv("LANDING_TEMPLATE", ""); v != "" {
		c.LandingTemplate = v
	}
	if v := GetEnv("MCP_ENABLED", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MCPEnabled = b
		}
	}
	if v := GetEnv("GENERATOR", ""); v != "" {
		c.Generator = v
	}
	if v := GetEnv("INTENTS_FILE", ""); v != "" {
		c.IntentsFile = v
	}
	if v := GetEnv("OLLAMA_URL", ""); v != "" {
		c.OllamaURL = v
	}
	if v := GetEnv("OLLAMA_MODEL", ""); v != "" {
		c.OllamaModel = v
	}
	if v := GetEnv("OLLAMA_API_KEY", ""); v != "" {
		c.OllamaAPIKey = v
	}
}

// BindFlags binds command line flags using the current config values as
// defaults so main can call flag.Parse().
func (c *ServerConfig) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.Func("metrics-port", "Prometheus metrics listen address or port; defaults to the value of --port", func(v string) error {
		c.MetricsAddr = normalizeAddr(v)
		return nil
	})
	fs.Func("request-timeout", "maximum time in seconds to generate an answer", func(v string) error {
		d, err := parseSeconds(v)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
		return nil
	})
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight requests on shutdown (-1 to wait indefinitely, 0 to exit immediately)")
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL used to cache answers; leave empty to disable")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "lifetime of cached answers")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", c.MaxBodyBytes, "maximum accepted size of a predict request body")
	fs.StringVar(&c.LandingTemplate, "landing-template", c.LandingTemplate, "HTML template served on /; defaults to the built-in page")
	fs.BoolVar(&c.MCPEnabled, "mcp", c.MCPEnabled, "expose the predict tool over MCP on /mcp")
	fs.StringVar(&c.Generator, "generator", c.Generator, "response generator (rules, echo, ollama)")
	fs.StringVar(&c.IntentsFile, "intents-file", c.IntentsFile, "YAML intents file for the rules generator; defaults to the built-in intents")
	fs.StringVar(&c.OllamaURL, "ollama-url", c.OllamaURL, "Ollama base URL")
	fs.StringVar(&c.OllamaModel, "ollama-model", c.OllamaModel, "Ollama model used by the ollama generator")
	fs.StringVar(&c.OllamaAPIKey, "ollama-api-key", c.OllamaAPIKey, "bearer token sent to Ollama, if it sits behind a proxy")
}

// LoadFile populates the config from a YAML file. Only keys present in the
// file are changed, so calling SetDefaults first keeps explicit zeros such as
// drain_timeout: 0s. Durations are written with a unit.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration values the server cannot start with.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	switch c.Generator {
	case GeneratorRules, GeneratorEcho, GeneratorOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown generator %q", c.Generator))
	}
	if c.Generator == GeneratorOllama && c.OllamaModel == "" {
		errs = append(errs, errors.New("ollama generator requires a model"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("invalid max body size %d", c.MaxBodyBytes))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid request timeout %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

// SeparateMetrics reports whether metrics are served on their own listener.
// An empty MetricsAddr follows the main port.
func (c *ServerConfig) SeparateMetrics() bool {
	return c.MetricsAddr != "" && c.MetricsAddr != c.ListenAddr()
}

// ListenAddr is the address of the main HTTP listener.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func normalizeAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

// parseSeconds accepts either a bare number of seconds or a Go duration.
func parseSeconds(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
