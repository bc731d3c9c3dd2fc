package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Search    SearchConfig    `mapstructure:"search"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`

	// ProviderTimeout bounds every route that calls the geo provider. It must
	// cover a full address search at geo.requests_per_sec.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// CacheRetentionDays bounds how long stored geocode answers are kept.
	CacheRetentionDays int `mapstructure:"cache_retention_days"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GeoConfig selects and tunes the geocoding / POI backend.
type GeoConfig struct {
	Provider       string        `mapstructure:"provider"` // osm | google
	NominatimURL   string        `mapstructure:"nominatim_url"`
	OverpassURL    string        `mapstructure:"overpass_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Timeout        time.Duration `mapstructure:"timeout"`
	GoogleAPIKey   string        `mapstructure:"google_api_key"`
}

// SearchConfig tunes the address search and POI lookup.
type SearchConfig struct {
	StartRadius int `mapstructure:"start_radius"`
	RadiusStep  int `mapstructure:"radius_step"`
	MaxRadius   int `mapstructure:"max_radius"`
	PoiRadius   int `mapstructure:"poi_radius"`
}

// Attempts is the number of reverse lookups in a full address search.
func (s SearchConfig) Attempts() int {
	if s.RadiusStep <= 0 || s.MaxRadius < s.StartRadius {
		return 0
	}
	return (s.MaxRadius-s.StartRadius)/s.RadiusStep + 1
}

// MinProviderTimeout is the time the rate limiter needs to let a full address
// search and the place lookup through, ignoring provider latency.
func (c *Config) MinProviderTimeout() time.Duration {
	if c.Geo.RequestsPerSec <= 0 {
		return 0
	}
	slots := float64(c.Search.Attempts() + 1)
	return time.Duration(slots / c.Geo.RequestsPerSec * float64(time.Second))
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from .env, config file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.provider_timeout", "60s")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "midway")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "midway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.cache_retention_days", 30)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geo.provider", "osm")
	v.SetDefault("geo.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("geo.user_agent", "midway/1.0 (+https://github.com/samirrijal/midway)")
	v.SetDefault("geo.requests_per_sec", 1.0)
	v.SetDefault("geo.timeout", "30s")
	v.SetDefault("geo.google_api_key", "")
	v.SetDefault("search.start_radius", 50)
	v.SetDefault("search.radius_step", 50)
	v.SetDefault("search.max_radius", 1000)
	v.SetDefault("search.poi_radius", 10000)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "meeting-points")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MIDWAY_GEO_PROVIDER → geo.provider
	v.SetEnvPrefix("MIDWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if floor := c.MinProviderTimeout(); c.Server.ProviderTimeout <= floor {
		errs = append(errs, fmt.Sprintf("server.provider_timeout must exceed %s, the time %d address lookups and a place lookup take at geo.requests_per_sec=%g, got %s",
			floor, c.Search.Attempts(), c.Geo.RequestsPerSec, c.Server.ProviderTimeout))
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.CacheRetentionDays <= 0 {
			errs = append(errs, "database.cache_retention_days must be positive")
		}
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	switch c.Geo.Provider {
	case "osm":
		if c.Geo.NominatimURL == "" {
			errs = append(errs, "geo.nominatim_url is required for the osm provider")
		}
		if c.Geo.OverpassURL == "" {
			errs = append(errs, "geo.overpass_url is required for the osm provider")
		}
		if c.Geo.UserAgent == "" {
			errs = append(errs, "geo.user_agent is required by the Nominatim usage policy")
		}
	case "google":
		if c.Geo.GoogleAPIKey == "" {
			errs = append(errs, "geo.google_api_key is required for the google provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("geo.provider must be osm or google, got %q", c.Geo.Provider))
	}
	if c.Geo.RequestsPerSec <= 0 {
		errs = append(errs, "geo.requests_per_sec must be positive")
	}
	if c.Geo.Timeout <= 0 {
		errs = append(errs, "geo.timeout must be positive")
	}

	if c.Search.StartRadius <= 0 {
		errs = append(errs, "search.start_radius must be positive")
	}
	if c.Search.RadiusStep <= 0 {
		errs = append(errs, "search.radius_step must be positive")
	}
	if c.Search.MaxRadius < c.Search.StartRadius {
		errs = append(errs, fmt.Sprintf("search.max_radius (%d) must be >= search.start_radius (%d)", c.Search.MaxRadius, c.Search.StartRadius))
	}
	if c.Search.PoiRadius <= 0 {
		errs = append(errs, "search.poi_radius must be positive")
	}

	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
