package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"venue-radar/logger"
	"venue-radar/observability"
)

// Environment variables are read as VENUE_RADAR_<SECTION>_<KEY>.
const ENV_PREFIX = "VENUE_RADAR"
const ENV_FILE = ".env"

// Server config
const SERVER_ADDRESS = ":8080"
const SERVER_SHUTDOWN_TIMEOUT = 5 * time.Second

// Log config
const LOG_LEVEL = "info"
const LOG_FORMAT = "console"

// Foursquare API
const FOURSQUARE_ENDPOINT_BASE_V2 = "https://api.foursquare.com/v2"
const FOURSQUARE_API_VERSION = "20180323"
const FOURSQUARE_MODE_LIVE = "live"
const FOURSQUARE_MODE_MOCK = "mock"
const FOURSQUARE_TIMEOUT = 10 * time.Second
const FOURSQUARE_ICON_SIZE = 88

// Location updates request
const LOCATION_PRIORITY = "balanced_power_accuracy"
const LOCATION_INTERVAL = 10000 * time.Millisecond
const LOCATION_FASTEST_INTERVAL = 7500 * time.Millisecond
const LOCATION_DEDUP_KEY = "sum"

// Pipeline
const PIPELINE_MAX_RETRIES = 5
const PIPELINE_FAN_OUT_MERGE = "merge"
const PIPELINE_FAN_OUT_LATEST = "latest"
const PIPELINE_MAX_CONCURRENCY = 8
const PIPELINE_BACKOFF_INITIAL = 500 * time.Millisecond
const PIPELINE_BACKOFF_MAX = 10 * time.Second
const PIPELINE_BACKOFF_MULTIPLIER = 2.0
const PIPELINE_BACKOFF_JITTER = 0.2

// Redis Config
const REDIS_DB_ADDRESS = "redis:6379"
const REDIS_DB_PASSWORD = ""
const REDIS_DB = 0
const REDIS_BATCH_TTL = time.Hour

// Telemetry
const TELEMETRY_SERVICE_NAME = "venue-radar"
const TELEMETRY_INTERVAL = 15 * time.Second

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const SEARCH_VENUE_RESPONSE_RESOURCE = "search_venues_response.json"
const VENUE_DETAILS_RESPONSE_RESOURCE = "venue_details_response.json"

type Config struct {
	Server     ServerConfig         `mapstructure:"server"`
	Log        logger.Config        `mapstructure:"log"`
	Foursquare FoursquareConfig     `mapstructure:"foursquare"`
	Location   LocationConfig       `mapstructure:"location"`
	Pipeline   PipelineConfig       `mapstructure:"pipeline"`
	Redis      RedisConfig          `mapstructure:"redis"`
	Telemetry  observability.Config `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type FoursquareConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	ClientID     string        `mapstructure:"client_id" validate:"required_if=Mode live"`
	ClientSecret string        `mapstructure:"client_secret" validate:"required_if=Mode live"`
	APIVersion   string        `mapstructure:"api_version" validate:"required"`
	Mode         string        `mapstructure:"mode" validate:"oneof=live mock"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	IconSize     int           `mapstructure:"icon_size" validate:"gt=0"`
}

type LocationConfig struct {
	Priority        string        `mapstructure:"priority" validate:"oneof=high_accuracy balanced_power_accuracy low_power no_power"`
	Interval        time.Duration `mapstructure:"interval" validate:"gte=0"`
	FastestInterval time.Duration `mapstructure:"fastest_interval" validate:"gte=0"`
	DedupKey        string        `mapstructure:"dedup_key" validate:"oneof=sum point"`
	// Optional location pushed once the broker connects.
	SeedLat *float64 `mapstructure:"seed_lat" validate:"omitempty,gte=-90,lte=90"`
	SeedLng *float64 `mapstructure:"seed_lng" validate:"omitempty,gte=-180,lte=180"`
}

// HasSeed reports whether both seed coordinates are configured.
func (c LocationConfig) HasSeed() bool {
	return c.SeedLat != nil && c.SeedLng != nil
}

type PipelineConfig struct {
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0"`
	FanOut         string        `mapstructure:"fan_out" validate:"oneof=merge latest"`
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gte=1"`
	Backoff        BackoffConfig `mapstructure:"backoff"`
}

// BackoffConfig shapes the delay between pipeline retries. A zero Initial
// retries immediately.
type BackoffConfig struct {
	Initial    time.Duration `mapstructure:"initial" validate:"gte=0"`
	Max        time.Duration `mapstructure:"max" validate:"gte=0"`
	Multiplier float64       `mapstructure:"multiplier" validate:"gte=1"`
	Jitter     float64       `mapstructure:"jitter" validate:"gte=0,lte=1"`
}

type RedisConfig struct {
	// When disabled the in-memory store is used.
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	BatchTTL time.Duration `mapstructure:"batch_ttl" validate:"gte=0"`
}

// DefaultPipelineConfig returns the pipeline defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxRetries:     PIPELINE_MAX_RETRIES,
		FanOut:         PIPELINE_FAN_OUT_MERGE,
		MaxConcurrency: PIPELINE_MAX_CONCURRENCY,
		Backoff: BackoffConfig{
			Initial:    PIPELINE_BACKOFF_INITIAL,
			Max:        PIPELINE_BACKOFF_MAX,
			Multiplier: PIPELINE_BACKOFF_MULTIPLIER,
			Jitter:     PIPELINE_BACKOFF_JITTER,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", SERVER_ADDRESS)
	v.SetDefault("server.shutdown_timeout", SERVER_SHUTDOWN_TIMEOUT)

	v.SetDefault("log.level", LOG_LEVEL)
	v.SetDefault("log.format", LOG_FORMAT)

	v.SetDefault("foursquare.base_url", FOURSQUARE_ENDPOINT_BASE_V2)
	v.SetDefault("foursquare.client_id", "")
	v.SetDefault("foursquare.client_secret", "")
	v.SetDefault("foursquare.api_version", FOURSQUARE_API_VERSION)
	v.SetDefault("foursquare.mode", FOURSQUARE_MODE_MOCK)
	v.SetDefault("foursquare.timeout", FOURSQUARE_TIMEOUT)
	v.SetDefault("foursquare.icon_size", FOURSQUARE_ICON_SIZE)

	v.SetDefault("location.priority", LOCATION_PRIORITY)
	v.SetDefault("location.interval", LOCATION_INTERVAL)
	v.SetDefault("location.fastest_interval", LOCATION_FASTEST_INTERVAL)
	v.SetDefault("location.dedup_key", LOCATION_DEDUP_KEY)

	pipeline := DefaultPipelineConfig()
	v.SetDefault("pipeline.max_retries", pipeline.MaxRetries)
	v.SetDefault("pipeline.fan_out", pipeline.FanOut)
	v.SetDefault("pipeline.max_concurrency", pipeline.MaxConcurrency)
	v.SetDefault("pipeline.backoff.initial", pipeline.Backoff.Initial)
	v.SetDefault("pipeline.backoff.max", pipeline.Backoff.Max)
	v.SetDefault("pipeline.backoff.multiplier", pipeline.Backoff.Multiplier)
	v.SetDefault("pipeline.backoff.jitter", pipeline.Backoff.Jitter)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", REDIS_DB_ADDRESS)
	v.SetDefault("redis.password", REDIS_DB_PASSWORD)
	v.SetDefault("redis.db", REDIS_DB)
	v.SetDefault("redis.batch_ttl", REDIS_BATCH_TTL)

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.interval", TELEMETRY_INTERVAL)
	v.SetDefault("telemetry.service_name", TELEMETRY_SERVICE_NAME)
}

// Load reads the configuration from defaults, an optional YAML file at path,
// the .env file, and VENUE_RADAR_ environment variables, in increasing
// precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(BaseDir(), ENV_FILE)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", ENV_FILE, err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Seeds have no default, so they must be bound explicitly.
	for _, key := range []string{"location.seed_lat", "location.seed_lng"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (cfg.Location.SeedLat == nil) != (cfg.Location.SeedLng == nil) {
		return errors.New("invalid config: location.seed_lat and location.seed_lng must be set together")
	}
	return nil
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	// Check if PROJECT_ROOT is set
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	// Default to the current working directory
	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resourceFile string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resourceFile)
}
