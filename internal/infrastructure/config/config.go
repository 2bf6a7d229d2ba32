package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Storage       StorageConfig
	Workflow      WorkflowConfig
	Messaging     MessagingConfig
	Reservations  ReservationConfig
	Observability ObservabilityConfig
	Activities    ActivitiesConfig
}

type AppConfig struct {
	Name            string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	SQLiteFile       string
	MaxConnections   int
	JournalFile      string
	JournalBatchSize int
}

type WorkflowConfig struct {
	SQLiteFile string
}

type MessagingConfig struct {
	Brokers []string
}

type ReservationConfig struct {
	TTL            time.Duration
	SweepInterval  time.Duration
	SweepBatchSize int
}

type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // "json" or "text"
	MetricsEnabled bool
	MetricsPort    int
	TracingEnabled bool
	ZipkinEndpoint string
}

type ActivitiesConfig struct {
	RetryMaxAttempts        int
	RetryBackoffMs          int
	TimeoutSeconds          int
	CircuitBreakerThreshold float64
	CircuitBreakerTimeout   time.Duration
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:            "inventory-service",
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			SQLiteFile:       "data/inventory.db",
			MaxConnections:   10,
			JournalFile:      "data/inventory-events.db",
			JournalBatchSize: 100,
		},
		Workflow: WorkflowConfig{
			SQLiteFile: "data/workflows.db",
		},
		Messaging: MessagingConfig{
			Brokers: []string{"localhost:9092"},
		},
		Reservations: ReservationConfig{
			TTL:            15 * time.Minute,
			SweepInterval:  time.Minute,
			SweepBatchSize: 100,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			MetricsPort:    9090,
			TracingEnabled: false,
			ZipkinEndpoint: "http://localhost:9411/api/v2/spans",
		},
		Activities: ActivitiesConfig{
			RetryMaxAttempts:        3,
			RetryBackoffMs:          100,
			TimeoutSeconds:          30,
			CircuitBreakerThreshold: 0.5,
			CircuitBreakerTimeout:   10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from YAML file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	// Environment variable overrides
	viper.SetEnvPrefix("INVENTORY")
	viper.AutomaticEnv()

	if sqliteFile := os.Getenv("INVENTORY_STORAGE_SQLITE_FILE"); sqliteFile != "" {
		cfg.Storage.SQLiteFile = sqliteFile
	}
	if brokers := os.Getenv("INVENTORY_KAFKA_BROKERS"); brokers != "" {
		cfg.Messaging.Brokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("INVENTORY_RESERVATION_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.Reservations.TTL = parsed
		}
	}
	if logLevel := os.Getenv("INVENTORY_LOG_LEVEL"); logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if tracingEnabled := os.Getenv("INVENTORY_TRACING_ENABLED"); tracingEnabled != "" {
		cfg.Observability.TracingEnabled = tracingEnabled == "true"
	}
	if zipkinEndpoint := os.Getenv("INVENTORY_ZIPKIN_ENDPOINT"); zipkinEndpoint != "" {
		cfg.Observability.ZipkinEndpoint = zipkinEndpoint
	}

	return cfg, nil
}
