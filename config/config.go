package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"bicho/database"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settlement dispatch modes
const (
	DispatchDirect = "direct"
	DispatchKafka  = "kafka"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	DatabaseName     string        `envconfig:"DATABASE_NAME"`
	DatabaseMaxConns int32         `envconfig:"DATABASE_MAX_CONNS" default:"20"`
	DatabaseConnTTL  time.Duration `envconfig:"DATABASE_CONN_TTL" default:"30m"`

	// Balance cache; empty disables it
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	BalanceTTL    time.Duration `envconfig:"BALANCE_CACHE_TTL" default:"5m"`

	// Events; empty disables publishing
	NATSServers string `envconfig:"NATS_SERVERS"`

	// Settlement queue
	KafkaBrokers         []string `envconfig:"KAFKA_BROKERS"`
	KafkaSettlementTopic string   `envconfig:"KAFKA_SETTLEMENT_TOPIC" default:"bicho.settlement.requests"`
	KafkaGroupID         string   `envconfig:"KAFKA_GROUP_ID" default:"bicho-settlement"`

	// Settlement
	SettlementDispatch      string        `envconfig:"SETTLEMENT_DISPATCH" default:"direct"`
	SettlementWorkers       int           `envconfig:"SETTLEMENT_WORKERS" default:"8"`
	SettlementDelay         time.Duration `envconfig:"SETTLEMENT_DELAY" default:"10m"`
	SettlementSweepInterval time.Duration `envconfig:"SETTLEMENT_SWEEP_INTERVAL" default:"15m"`
	SchedulerEnabled        bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`

	// Cancellation
	CancelBuffer time.Duration `envconfig:"CANCEL_BUFFER" default:"1h"`
	Timezone     string        `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`

	// HTTP
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// OpenTelemetry
	OTelEnabled              bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTelServiceName          string `envconfig:"OTEL_SERVICE_NAME" default:"bicho"`
	OTelExporterType         string `envconfig:"OTEL_EXPORTER_TYPE" default:"prometheus"`
	OTelOTLPEndpoint         string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"otel-collector:4317"`
	OTelExportIntervalMillis int    `envconfig:"OTEL_EXPORT_INTERVAL_MILLIS" default:"30000"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Environment
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Location returns the timezone draw schedules are expressed in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// load loads configuration from an optional .env file and the environment
func load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if config.DatabaseURL != "" {
		normalized, err := database.NormalizeDatabaseURL(config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		config.DatabaseURL = normalized
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	switch c.SettlementDispatch {
	case DispatchDirect:
	case DispatchKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when SETTLEMENT_DISPATCH=kafka")
		}
	default:
		return fmt.Errorf("unknown SETTLEMENT_DISPATCH %q", c.SettlementDispatch)
	}
	if c.SettlementWorkers < 1 {
		return fmt.Errorf("SETTLEMENT_WORKERS must be at least 1")
	}
	if c.CancelBuffer <= 0 {
		return fmt.Errorf("CANCEL_BUFFER must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		SettlementDispatch:      DispatchDirect,
		SettlementWorkers:       4,
		SettlementDelay:         10 * time.Minute,
		SettlementSweepInterval: 15 * time.Minute,
		CancelBuffer:            time.Hour,
		Timezone:                "UTC",
		BalanceTTL:              time.Minute,
		OTelExporterType:        "none",
		LogLevel:                "debug",
		LogFormat:               "text",
	}
}
