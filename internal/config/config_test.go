package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustDuration(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustBool(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a.com", []string{"a.com"}},
		{" a.com , 'b.com',\"c.com\" ,, ", []string{"a.com", "b.com", "c.com"}},
	}
	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISPOSABLE_CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Checker != CheckerFile || !cfg.UseBundledList || cfg.PatternDetection {
		t.Errorf("unexpected detection defaults: %+v", cfg)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Store != StoreMemory || cfg.Cache.TTLDuration() != time.Hour {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Cache.Prefix != "disposable_email:" {
		t.Errorf("prefix = %q", cfg.Cache.Prefix)
	}
	if cfg.Database.Table != "disposable_domains" || cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("unexpected storage defaults: %+v %+v", cfg.Database, cfg.Ingest)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disposable.yaml")
	doc := `
checker: chain
pattern_detection: true
whitelist: [mycompany.com]
cache:
  ttl: 0
  store: memory
database:
  driver: sqlite
  connection: /tmp/domains.db
  table: blocked
ingest:
  fetch_timeout: 10s
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DISPOSABLE_CONFIG_FILE", path)
	t.Setenv("DISPOSABLE_WHITELIST", "a.com, b.co.uk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Checker != CheckerChain || !cfg.PatternDetection {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Cache.TTL != 0 || cfg.Cache.TTLDuration() != 0 {
		t.Errorf("explicit ttl 0 should mean forever, got %d", cfg.Cache.TTL)
	}
	if !cfg.Cache.Enabled {
		t.Error("absent cache.enabled should keep the default")
	}
	if cfg.Database.Table != "blocked" || cfg.Database.Driver != "sqlite" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Ingest.FetchTimeout != 10*time.Second || cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if want := []string{"a.com", "b.co.uk"}; !reflect.DeepEqual(cfg.Whitelist, want) {
		t.Errorf("env should override whitelist, got %v", cfg.Whitelist)
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("checker: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DISPOSABLE_CONFIG_FILE", path)

	_, err := Load()
	if !IsConfigError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string // empty means valid
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown checker", mutate: func(c *Config) { c.Checker = "magic" }, field: "checker"},
		{name: "file without bundled list", mutate: func(c *Config) { c.UseBundledList = false }, field: "checker"},
		{name: "chain without table or list", mutate: func(c *Config) {
			c.Checker = CheckerChain
			c.UseBundledList = false
			c.Database.Table = ""
		}, field: "checker"},
		{name: "chain with table only", mutate: func(c *Config) {
			c.Checker = CheckerChain
			c.UseBundledList = false
			c.Database.Connection = "postgres://localhost/db"
		}},
		{name: "chain with table but no connection", mutate: func(c *Config) { c.Checker = CheckerChain }, field: "database.connection"},
		{name: "chain with bundled list only", mutate: func(c *Config) {
			c.Checker = CheckerChain
			c.Database.Table = ""
		}},
		{name: "database without connection", mutate: func(c *Config) { c.Checker = CheckerDatabase }, field: "database.connection"},
		{name: "database on memory driver", mutate: func(c *Config) {
			c.Checker = CheckerDatabase
			c.Database.Driver = DriverMemory
		}},
		{name: "database without table", mutate: func(c *Config) {
			c.Checker = CheckerDatabase
			c.Database.Table = ""
		}, field: "database.table"},
		{name: "pattern only", mutate: func(c *Config) {
			c.Checker = CheckerPattern
			c.UseBundledList = false
		}},
		{name: "bad table name", mutate: func(c *Config) { c.Database.Table = "domains; DROP TABLE x" }, field: "database.table"},
		{name: "schema qualified table", mutate: func(c *Config) { c.Database.Table = "public.domains" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, field: "database.driver"},
		{name: "unknown cache store", mutate: func(c *Config) { c.Cache.Store = "memcached" }, field: "cache.store"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = -1 }, field: "cache.ttl"},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Store = StoreRedis }, field: "redis.addr"},
		{name: "redis disabled without addr", mutate: func(c *Config) {
			c.Cache.Store = StoreRedis
			c.Cache.Enabled = false
		}},
		{name: "zero chunk", mutate: func(c *Config) { c.Ingest.ChunkSize = 0 }, field: "ingest.chunk_size"},
		{name: "bad whitelist", mutate: func(c *Config) { c.Whitelist = []string{"not a domain"} }, field: "whitelist"},
		{name: "subdomain whitelist", mutate: func(c *Config) { c.Whitelist = []string{"mail.mailinator.com"} }, field: "whitelist"},
		{name: "multi-label whitelist", mutate: func(c *Config) { c.Whitelist = []string{"company.co.uk"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *domain.ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Redis.Password = "secret"
	cfg.Database.Connection = "postgres://u:p@h/db"

	r := cfg.Redacted()
	if r.Redis.Password == "secret" || r.Database.Connection == cfg.Database.Connection {
		t.Errorf("secrets leaked: %+v", r)
	}
	if cfg.Redis.Password != "secret" {
		t.Error("Redacted must not modify the original")
	}
}
