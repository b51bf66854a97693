package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for the at-desk feature pipeline
type Config struct {
	// Signal pipeline configuration
	InterpFreq           float64
	WindowSizeSeconds    float64
	WindowOverlapSeconds float64
	DayStartHour         int
	DayEndHour           int
	NumActivityTypes     int
	FillMissingFreq      float64 // pre-fill rate for event-driven streams, 0 disables

	// Optional site location used for the is_daylight time feature
	EnableDaylightFeature bool
	SiteLatitude          float64
	SiteLongitude         float64

	// Batch configuration
	RegistryFile string
	Workers      int

	// Sink configuration
	Sinks     []string
	OutputDir string

	// MQTT configuration
	MQTTBroker    string
	MQTTPort      int
	MQTTUser      string
	MQTTPassword  string
	MQTTClientID  string
	PublishEvents bool

	// Redis configuration (raw sensor store)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration (feature sink)
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		InterpFreq:           10,
		WindowSizeSeconds:    10,
		WindowOverlapSeconds: 0,
		DayStartHour:         8,
		DayEndHour:           20,
		NumActivityTypes:     8,
		FillMissingFreq:      0,

		EnableDaylightFeature: false,
		SiteLatitude:          60.1695,
		SiteLongitude:         24.9354,

		RegistryFile: "config/registry.yaml",
		Workers:      4,

		Sinks:     []string{"parquet"},
		OutputDir: "data/features",

		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		PublishEvents: false,

		RedisHost: "localhost",
		RedisPort: 6379,
		RedisDB:   0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "atdesk",
		PostgresDB:                 "atdesk",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName: "atdesk-features",
		HealthPort:  8080,
		LogLevel:    "info",
	}
}

// LoadFromEnv loads configuration from environment variables with ATDESK_ prefix
func (c *Config) LoadFromEnv() {
	// Signal pipeline configuration
	if v := os.Getenv("ATDESK_INTERP_FREQ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.InterpFreq = f
		}
	}
	if v := os.Getenv("ATDESK_WINDOW_SIZE_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.WindowSizeSeconds = f
		}
	}
	if v := os.Getenv("ATDESK_WINDOW_OVERLAP_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.WindowOverlapSeconds = f
		}
	}
	if v := os.Getenv("ATDESK_DAY_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			c.DayStartHour = h
		}
	}
	if v := os.Getenv("ATDESK_DAY_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			c.DayEndHour = h
		}
	}
	if v := os.Getenv("ATDESK_NUM_ACTIVITY_TYPES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.NumActivityTypes = n
		}
	}
	if v := os.Getenv("ATDESK_FILL_MISSING_FREQ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FillMissingFreq = f
		}
	}
	if v := os.Getenv("ATDESK_ENABLE_DAYLIGHT_FEATURE"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnableDaylightFeature = enable
		}
	}
	if v := os.Getenv("ATDESK_SITE_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.SiteLatitude = lat
		}
	}
	if v := os.Getenv("ATDESK_SITE_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.SiteLongitude = lon
		}
	}

	// Batch and sink configuration
	if v := os.Getenv("ATDESK_REGISTRY_FILE"); v != "" {
		c.RegistryFile = v
	}
	if v := os.Getenv("ATDESK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("ATDESK_SINKS"); v != "" {
		c.Sinks = strings.Split(v, ",")
	}
	if v := os.Getenv("ATDESK_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}

	// MQTT configuration
	if v := os.Getenv("ATDESK_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("ATDESK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("ATDESK_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("ATDESK_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("ATDESK_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("ATDESK_PUBLISH_EVENTS"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.PublishEvents = enable
		}
	}

	// Redis configuration
	if v := os.Getenv("ATDESK_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("ATDESK_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("ATDESK_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("ATDESK_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("ATDESK_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("ATDESK_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("ATDESK_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("ATDESK_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("ATDESK_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("ATDESK_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("ATDESK_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("ATDESK_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("ATDESK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every option to the given flag set
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// Signal pipeline flags
	fs.Float64Var(&c.InterpFreq, "interp-freq", c.InterpFreq, "Target resample rate in Hz")
	fs.Float64Var(&c.WindowSizeSeconds, "window-size", c.WindowSizeSeconds, "Feature window length in seconds")
	fs.Float64Var(&c.WindowOverlapSeconds, "window-overlap", c.WindowOverlapSeconds, "Overlap between consecutive windows in seconds")
	fs.IntVar(&c.DayStartHour, "day-start-hour", c.DayStartHour, "First local hour kept by the time-range filter")
	fs.IntVar(&c.DayEndHour, "day-end-hour", c.DayEndHour, "Local hour at which the time-range filter stops (exclusive)")
	fs.IntVar(&c.NumActivityTypes, "num-activity-types", c.NumActivityTypes, "Cardinality of the activity type one-hot encoding")
	fs.Float64Var(&c.FillMissingFreq, "fill-missing-freq", c.FillMissingFreq, "Hold-fill activity type and step count streams at this rate in Hz (0 disables)")
	fs.BoolVar(&c.EnableDaylightFeature, "daylight-feature", c.EnableDaylightFeature, "Emit an is_daylight time feature for the site location")
	fs.Float64Var(&c.SiteLatitude, "site-latitude", c.SiteLatitude, "Site latitude for daylight calculation")
	fs.Float64Var(&c.SiteLongitude, "site-longitude", c.SiteLongitude, "Site longitude for daylight calculation")

	// Batch and sink flags
	fs.StringVar(&c.RegistryFile, "registry", c.RegistryFile, "YAML file with user work days and at-desk ground truth")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of sessions processed concurrently")
	fs.StringSliceVar(&c.Sinks, "sink", c.Sinks, "Persistence sinks (parquet, postgres)")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "Output directory for the parquet sink")

	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	fs.BoolVar(&c.PublishEvents, "publish-events", c.PublishEvents, "Publish session and batch events over MQTT")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.InterpFreq <= 0 {
		return fmt.Errorf("interp frequency must be positive")
	}
	winLen, overlapLen := c.WindowSamples()
	if winLen <= 0 {
		return fmt.Errorf("window size must cover at least one sample at %.2f Hz", c.InterpFreq)
	}
	if overlapLen < 0 || overlapLen >= winLen {
		return fmt.Errorf("window overlap must satisfy 0 <= overlap < window size")
	}
	if c.DayStartHour < 0 || c.DayEndHour > 24 || c.DayStartHour >= c.DayEndHour {
		return fmt.Errorf("day hours must satisfy 0 <= start < end <= 24")
	}
	if c.FillMissingFreq < 0 {
		return fmt.Errorf("fill missing frequency must not be negative")
	}
	if c.NumActivityTypes <= 0 {
		return fmt.Errorf("number of activity types must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	for _, s := range c.Sinks {
		switch s {
		case "parquet", "postgres":
		default:
			return fmt.Errorf("unknown sink: %s (must be parquet or postgres)", s)
		}
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// WindowSamples converts the window size and overlap from seconds to sample counts
func (c *Config) WindowSamples() (winLen, overlapLen int) {
	winLen = int(c.WindowSizeSeconds*c.InterpFreq + 0.5)
	overlapLen = int(c.WindowOverlapSeconds*c.InterpFreq + 0.5)
	return winLen, overlapLen
}

// HasSink reports whether the named sink is enabled
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
