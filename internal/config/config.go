package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Google   GoogleConfig
	AWS      AWSConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DataConfig describes where the sales dataset comes from and how rows are
// validated.
type DataConfig struct {
	Source           string
	DropInvalidDates bool
	DateLayouts      []string
	HTTPTimeout      time.Duration
	LoadTimeout      time.Duration
	CacheDir         string
}

type GoogleConfig struct {
	APIKey          string
	CredentialsFile string
	SheetsRange     string
}

type AWSConfig struct {
	Region  string
	Profile string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load builds the configuration from defaults, the optional CONFIG_FILE,
// a .env file in the working directory and the process environment. Later
// layers win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var file map[string]string
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if file, err = LoadFile(path); err != nil {
			return nil, err
		}
		if err := checkKeys(path, file); err != nil {
			return nil, err
		}
	}

	return FromLookup(layered(file))
}

// FromLookup builds and validates a Config from a key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}
	cfg := &Config{
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "localhost"),
			Port:            e.integer("SERVER_PORT", 8084),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: e.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			Source:           e.str("DATA_SOURCE", "sample-superstore.csv"),
			DropInvalidDates: e.boolean("DATA_DROP_INVALID_DATES", true),
			DateLayouts:      e.list("DATA_DATE_LAYOUTS", "|", nil),
			HTTPTimeout:      e.duration("DATA_HTTP_TIMEOUT", 60*time.Second),
			LoadTimeout:      e.duration("DATA_LOAD_TIMEOUT", 2*time.Minute),
			CacheDir:         e.str("DATA_CACHE_DIR", ""),
		},
		Google: GoogleConfig{
			APIKey:          e.str("GOOGLE_API_KEY", ""),
			CredentialsFile: e.str("GOOGLE_CREDENTIALS_FILE", ""),
			SheetsRange:     e.str("GOOGLE_SHEETS_RANGE", ""),
		},
		AWS: AWSConfig{
			Region:  e.str("AWS_REGION", ""),
			Profile: e.str("AWS_PROFILE", ""),
		},
		Logger: LoggerConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: e.boolean("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    e.integer("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  e.integer("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  e.list("SECURITY_ALLOWED_ORIGINS", ",", []string{"http://localhost:8084"}),
			TrustedProxies:  e.list("SECURITY_TRUSTED_PROXIES", ",", []string{"127.0.0.1"}),
		},
	}

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(e.errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if strings.TrimSpace(c.Data.Source) == "" {
		return fmt.Errorf("data source cannot be empty")
	}

	if c.Data.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}

	if c.Data.LoadTimeout <= 0 {
		return fmt.Errorf("data load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// Keys lists every key FromLookup reads. A config file section maps onto
// the key prefix, so data.cache_dir is DATA_CACHE_DIR.
func Keys() []string {
	var keys []string
	_, _ = FromLookup(func(key string) (string, bool) {
		keys = append(keys, key)
		return "", false
	})
	return keys
}

// checkKeys rejects config file entries that no setting reads.
func checkKeys(path string, file map[string]string) error {
	known := Keys()
	var unknown []string
	for key := range file {
		if !slices.Contains(known, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// layered looks a key up in the environment first, then in file.
func layered(file map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok && v != ""
	}
}

// env reads typed values and records the keys that failed to parse.
type env struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *env) boolean(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (e *env) list(key, sep string, def []string) []string {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
