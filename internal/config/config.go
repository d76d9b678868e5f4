package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/store/sqldb"
)

// Checker selections.
const (
	CheckerFile     = "file"
	CheckerDatabase = "database"
	CheckerPattern  = "pattern"
	CheckerChain    = "chain"
)

// Cache stores.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// DriverMemory keeps the domain table in process memory.
const DriverMemory = "memory"

var validCheckers = []string{CheckerFile, CheckerDatabase, CheckerPattern, CheckerChain}

type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`      // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	Checker             string   `yaml:"checker"`                // file | database | pattern | chain
	UseBundledList      bool     `yaml:"use_bundled_list"`       // include the embedded list in the chain
	PatternDetection    bool     `yaml:"pattern_detection"`      // append the heuristic checker
	Whitelist           []string `yaml:"whitelist"`              // never reported as disposable
	ExtraMultiLabelTLDs []string `yaml:"extra_multi_label_tlds"` // ex: "co.xyz"

	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ingest   IngestConfig   `yaml:"ingest"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Store   string `yaml:"store"`  // memory | redis
	TTL     int    `yaml:"ttl"`    // seconds, 0 = forever
	Prefix  string `yaml:"prefix"` // key namespace
	Size    int    `yaml:"size"`   // memory store capacity
}

// TTLDuration returns the cache ttl as a duration (0 = forever).
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`     // postgres | sqlite | memory
	Connection  string `yaml:"connection"` // DSN
	Table       string `yaml:"table"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"` // ex: "localhost:6379"
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PoolSize       int           `yaml:"pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // total time to retry connecting
	RetryInterval  time.Duration `yaml:"retry_interval"`  // initial wait, grows exponentially
	MaxWait        time.Duration `yaml:"max_wait"`        // cap between retries
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	WarnThreshold  int           `yaml:"warn_threshold"` // warn after this many attempts
}

type IngestConfig struct {
	ChunkSize    int           `yaml:"chunk_size"`
	Concurrency  int           `yaml:"concurrency"`
	SourcesFile  string        `yaml:"sources_file"` // optional YAML list of extra sources
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Interval     time.Duration `yaml:"interval"` // 0 disables scheduled updates
	OnStart      bool          `yaml:"on_start"` // run an update when serving starts
}

type HTTPConfig struct {
	AllowedCIDRS  []string      `yaml:"allowed_cidrs"` // restricts /update and /metrics
	AllowedHosts  []string      `yaml:"allowed_hosts"` // Host headers accepted on admin routes, "*.example.com" allowed
	TrustProxy    bool          `yaml:"trust_proxy"`   // trust X-Forwarded-For (e.g. cloudflared)
	RateBurst     int           `yaml:"rate_burst"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	Timeout       time.Duration `yaml:"timeout"` // per-request timeout
	MaxBatch      int           `yaml:"max_batch"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		PrettyLog:       false,

		Checker:        CheckerFile,
		UseBundledList: true,

		Cache: CacheConfig{
			Enabled: true,
			Store:   StoreMemory,
			TTL:     3600,
			Prefix:  "disposable_email:",
			Size:    100_000,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Table:  sqldb.DefaultTable,
		},
		Redis: RedisConfig{
			User:           "default",
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
			PingTimeout:    5 * time.Second,
			WarnThreshold:  3,
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			Concurrency:  1,
			FetchTimeout: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			TrustProxy:    false,
			RateBurst:     60,
			RatePerMinute: 600,
			Timeout:       5 * time.Second,
			MaxBatch:      1000,
		},
	}
}

// Load reads the optional YAML file named by DISPOSABLE_CONFIG_FILE, applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("DISPOSABLE_CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	// Keys absent from the document keep their defaults.
	if err := yaml.Unmarshal(data, c); err != nil {
		return &domain.ConfigError{Field: "config_file", Reason: err.Error()}
	}
	return nil
}

func (c *Config) applyEnv() {
	// Server settings
	c.ListenAddr = getenv("DISPOSABLE_LISTEN_ADDR", c.ListenAddr)
	c.ShutdownTimeout = mustDuration("DISPOSABLE_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	// Logging
	c.LogLevel = getenv("DISPOSABLE_LOG_LEVEL", c.LogLevel)
	c.PrettyLog = mustBool("DISPOSABLE_PRETTY_LOG", c.PrettyLog)

	// Detection
	c.Checker = getenv("DISPOSABLE_CHECKER", c.Checker)
	c.UseBundledList = mustBool("DISPOSABLE_USE_BUNDLED_LIST", c.UseBundledList)
	c.PatternDetection = mustBool("DISPOSABLE_PATTERN_DETECTION", c.PatternDetection)
	c.Whitelist = getenvSlice("DISPOSABLE_WHITELIST", c.Whitelist)
	c.ExtraMultiLabelTLDs = getenvSlice("DISPOSABLE_EXTRA_TLDS", c.ExtraMultiLabelTLDs)

	// Cache
	c.Cache.Enabled = mustBool("DISPOSABLE_CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.Store = getenv("DISPOSABLE_CACHE_STORE", c.Cache.Store)
	c.Cache.TTL = getenvInt("DISPOSABLE_CACHE_TTL", c.Cache.TTL)
	c.Cache.Prefix = getenvRaw("DISPOSABLE_CACHE_PREFIX", c.Cache.Prefix)
	c.Cache.Size = getenvInt("DISPOSABLE_CACHE_SIZE", c.Cache.Size)

	// Database
	c.Database.Driver = getenv("DISPOSABLE_DB_DRIVER", c.Database.Driver)
	c.Database.Connection = getenv("DISPOSABLE_DB_CONNECTION", c.Database.Connection)
	c.Database.Table = getenvRaw("DISPOSABLE_DB_TABLE", c.Database.Table)
	c.Database.AutoMigrate = mustBool("DISPOSABLE_DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	// Redis settings
	c.Redis.Addr = getenv("DISPOSABLE_REDIS_ADDR", c.Redis.Addr)
	c.Redis.User = getenv("DISPOSABLE_REDIS_USERNAME", c.Redis.User)
	c.Redis.Password = getenv("DISPOSABLE_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("DISPOSABLE_REDIS_DB", c.Redis.DB)
	c.Redis.DialTimeout = mustDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = mustDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = mustDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)
	c.Redis.MaxWait = mustDuration("REDIS_MAX_WAIT", c.Redis.MaxWait)
	c.Redis.PingTimeout = mustDuration("REDIS_PING_TIMEOUT", c.Redis.PingTimeout)
	c.Redis.PoolSize = getenvInt("REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.ConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", c.Redis.ConnectTimeout)
	c.Redis.RetryInterval = mustDuration("REDIS_RETRY_INTERVAL", c.Redis.RetryInterval)
	c.Redis.WarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", c.Redis.WarnThreshold)

	// Ingestion
	c.Ingest.ChunkSize = getenvInt("DISPOSABLE_INGEST_CHUNK_SIZE", c.Ingest.ChunkSize)
	c.Ingest.Concurrency = getenvInt("DISPOSABLE_INGEST_CONCURRENCY", c.Ingest.Concurrency)
	c.Ingest.SourcesFile = getenv("DISPOSABLE_SOURCES_FILE", c.Ingest.SourcesFile)
	c.Ingest.FetchTimeout = mustDuration("DISPOSABLE_FETCH_TIMEOUT", c.Ingest.FetchTimeout)
	c.Ingest.Interval = mustDuration("DISPOSABLE_UPDATE_INTERVAL", c.Ingest.Interval)
	c.Ingest.OnStart = mustBool("DISPOSABLE_UPDATE_ON_START", c.Ingest.OnStart)

	// Access restrictions
	c.HTTP.AllowedCIDRS = getenvSlice("DISPOSABLE_ALLOWED_CIDRS", c.HTTP.AllowedCIDRS)
	c.HTTP.AllowedHosts = getenvSlice("DISPOSABLE_ALLOWED_HOSTS", c.HTTP.AllowedHosts)
	c.HTTP.TrustProxy = mustBool("DISPOSABLE_TRUST_PROXY", c.HTTP.TrustProxy)
	c.HTTP.RateBurst = getenvInt("DISPOSABLE_RATE_BURST", c.HTTP.RateBurst)
	c.HTTP.RatePerMinute = getenvInt("DISPOSABLE_RATE_PER_MINUTE", c.HTTP.RatePerMinute)
	c.HTTP.Timeout = mustDuration("DISPOSABLE_HTTP_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.MaxBatch = getenvInt("DISPOSABLE_MAX_BATCH", c.HTTP.MaxBatch)
}

// Validate reports the first invalid or contradictory setting as a
// *domain.ConfigError.
func (c *Config) Validate() error {
	switch c.Checker {
	case CheckerFile:
		if !c.UseBundledList {
			return invalid("checker", "checker 'file' requires use_bundled_list")
		}
	case CheckerChain:
		if c.Database.Table == "" && !c.UseBundledList {
			return invalid("checker", "checker 'chain' needs database.table or use_bundled_list")
		}
		if c.Database.Table != "" && c.Database.Driver != DriverMemory && c.Database.Connection == "" {
			return invalid("database.connection", "checker 'chain' with database.table requires a connection")
		}
	case CheckerDatabase:
		if c.Database.Table == "" {
			return invalid("database.table", "checker 'database' requires a table")
		}
		if c.Database.Driver != DriverMemory && c.Database.Connection == "" {
			return invalid("database.connection", "checker 'database' requires a connection")
		}
	case CheckerPattern:
	default:
		return invalid("checker", fmt.Sprintf("unknown checker %q (valid: %s)", c.Checker, strings.Join(validCheckers, ", ")))
	}

	switch c.Database.Driver {
	case sqldb.DriverPostgres, sqldb.DriverSQLite, DriverMemory:
	default:
		return invalid("database.driver", fmt.Sprintf("unknown driver %q", c.Database.Driver))
	}
	if c.Database.Table != "" && !sqldb.ValidTableName(c.Database.Table) {
		return invalid("database.table", fmt.Sprintf("%q is not a plain SQL identifier", c.Database.Table))
	}

	switch c.Cache.Store {
	case StoreMemory, StoreRedis:
	default:
		return invalid("cache.store", fmt.Sprintf("unknown cache store %q", c.Cache.Store))
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl", "must be >= 0")
	}
	if c.Cache.Enabled && c.Cache.Store == StoreRedis && c.Redis.Addr == "" {
		return invalid("redis.addr", "cache store 'redis' requires an address")
	}
	if c.Cache.Store == StoreMemory && c.Cache.Size < 1 {
		return invalid("cache.size", "must be >= 1")
	}

	if c.Ingest.ChunkSize < 1 {
		return invalid("ingest.chunk_size", "must be >= 1")
	}
	if c.Ingest.Interval < 0 {
		return invalid("ingest.interval", "must be >= 0")
	}

	n := domain.NewNormalizer(c.ExtraMultiLabelTLDs...)
	for _, w := range c.Whitelist {
		info, err := n.Parse(w)
		if err != nil {
			return invalid("whitelist", fmt.Sprintf("invalid entry %q", w))
		}
		if info.HasSubdomain() {
			return invalid("whitelist", fmt.Sprintf("entry %q is a subdomain, use %q", w, info.Domain))
		}
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Redis.Password != "" {
		cp.Redis.Password = "***REDACTED***"
	}
	if cp.Database.Connection != "" {
		cp.Database.Connection = "***REDACTED***"
	}
	return cp
}

// IsConfigError reports whether err is a configuration failure.
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrConfiguration)
}

func invalid(field, reason string) error {
	return &domain.ConfigError{Field: field, Reason: reason}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvRaw honours a variable that is set but empty.
func getenvRaw(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitAndTrim(v)
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
