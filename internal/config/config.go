package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	JournalNone     = "none"
	JournalFile     = "file"
	JournalPostgres = "postgres"
)

// Config holds the process configuration read from the environment
type Config struct {
	ServerPort string
	LogLevel   string

	JournalDriver   string
	JournalFilePath string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	NATSURL           string
	NATSSubjectPrefix string

	RateLimit             string
	SeedSampleData        bool
	StatisticsRecentLimit int
	ShutdownTimeout       time.Duration
}

// Load reads .env when present, then the environment over the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JOURNAL_DRIVER", JournalNone)
	v.SetDefault("JOURNAL_FILE_PATH", "data/journal.jsonl")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "retail_ledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "ledger")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("SEED_SAMPLE_DATA", false)
	v.SetDefault("STATISTICS_RECENT_LIMIT", 5)
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:            v.GetString("SERVER_PORT"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		JournalDriver:         strings.ToLower(strings.TrimSpace(v.GetString("JOURNAL_DRIVER"))),
		JournalFilePath:       v.GetString("JOURNAL_FILE_PATH"),
		DBHost:                v.GetString("DB_HOST"),
		DBPort:                v.GetString("DB_PORT"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		DBName:                v.GetString("DB_NAME"),
		DBSSLMode:             v.GetString("DB_SSLMODE"),
		NATSURL:               v.GetString("NATS_URL"),
		NATSSubjectPrefix:     v.GetString("NATS_SUBJECT_PREFIX"),
		RateLimit:             v.GetString("RATE_LIMIT"),
		SeedSampleData:        v.GetBool("SEED_SAMPLE_DATA"),
		StatisticsRecentLimit: v.GetInt("STATISTICS_RECENT_LIMIT"),
		ShutdownTimeout:       v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	switch cfg.JournalDriver {
	case "":
		cfg.JournalDriver = JournalNone
	case JournalNone, JournalFile, JournalPostgres:
	default:
		return nil, fmt.Errorf("unknown JOURNAL_DRIVER %q", cfg.JournalDriver)
	}
	if cfg.JournalDriver == JournalFile && cfg.JournalFilePath == "" {
		return nil, fmt.Errorf("JOURNAL_FILE_PATH is required for the file journal")
	}
	if cfg.StatisticsRecentLimit <= 0 {
		cfg.StatisticsRecentLimit = 5
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return cfg, nil
}

// GetDBConnectionString renders the lib/pq key/value DSN.
func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
