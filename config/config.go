package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar menunjuk file yaml opsional. Env var tetap menang atas isi file.
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port       int    `koanf:"port"`
	GinMode    string `koanf:"gin_mode"`
	DBDriver   string `koanf:"db_driver"`
	DBDSN      string `koanf:"db_dsn"`
	JWTSecret  string `koanf:"jwt_secret"`
	CORSOrigin string `koanf:"cors_origin"`

	// role yang boleh menerima notifikasi order dan mengubah status order
	StaffRoles []string `koanf:"staff_roles"`

	TxTimeout       time.Duration `koanf:"tx_timeout"`
	PruneInterval   time.Duration `koanf:"prune_interval"`
	ConnectionGrace time.Duration `koanf:"connection_grace"`

	WSSendBuffer      int     `koanf:"ws_send_buffer"`
	WSEventsPerSecond float64 `koanf:"ws_events_per_second"`
	WSEventBurst      int     `koanf:"ws_event_burst"`
	HTTPRateLimit     int     `koanf:"http_rate_limit"`

	LogLevel     string `koanf:"log_level"`
	SeedDemoData bool   `koanf:"seed_demo_data"`
}

func defaultConfig() *Config {
	return &Config{
		Port:              8080,
		GinMode:           "debug",
		DBDriver:          DriverSQLite,
		DBDSN:             "digital_menu.db",
		CORSOrigin:        "*",
		StaffRoles:        []string{"admin", "staff", "waiter"},
		TxTimeout:         5 * time.Second,
		PruneInterval:     time.Minute,
		ConnectionGrace:   2 * time.Minute,
		WSSendBuffer:      64,
		WSEventsPerSecond: 5,
		WSEventBurst:      10,
		HTTPRateLimit:     50,
		LogLevel:          "info",
	}
}

// Load -> default, lalu file yaml (kalau ada), lalu .env dan environment.
func Load() (*Config, error) {
	// .env boleh tidak ada
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.StaffRoles = splitList(cfg.StaffRoles)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var knownKeys = map[string]bool{
	"port": true, "gin_mode": true, "db_driver": true, "db_dsn": true,
	"jwt_secret": true, "cors_origin": true, "staff_roles": true,
	"tx_timeout": true, "prune_interval": true, "connection_grace": true,
	"ws_send_buffer": true, "ws_events_per_second": true, "ws_event_burst": true,
	"http_rate_limit": true, "log_level": true, "seed_demo_data": true,
}

// envKey: PORT -> port. Env var lain diabaikan.
func envKey(key string) string {
	key = strings.ToLower(key)
	if !knownKeys[key] {
		return ""
	}
	return key
}

// splitList merapikan "admin, staff" yang datang sebagai satu elemen dari env.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for mysql")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if len(c.StaffRoles) == 0 {
		return fmt.Errorf("at least one staff role is required")
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("ws send buffer must be positive")
	}
	if c.WSEventsPerSecond <= 0 || c.WSEventBurst <= 0 {
		return fmt.Errorf("ws event rate must be positive")
	}
	if c.HTTPRateLimit <= 0 {
		return fmt.Errorf("http rate limit must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
