package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	EventStore EventStoreConfig
	HIS        HISConfig
	Auth       AuthConfig
	Staffing   StaffingConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig holds configuration for the catalog cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// EventStoreConfig holds configuration for the EventStoreDB event bus.
type EventStoreConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
	Enabled  bool
}

// HISConfig holds the connection settings for the hospital information system
// the stay importer polls for transfer records.
type HISConfig struct {
	DSN           string
	TransferTable string
	PatientTable  string
	PollSeconds   int
	Enabled       bool
}

type AuthConfig struct {
	JWTSecret string
}

// StaffingConfig carries the statutory staffing constants. Weekly full-time
// hours and the patients-per-caregiver cap come from the ordinance but are
// deployment-configurable, as is the policy for months with missing days.
type StaffingConfig struct {
	// WeeklyFullTimeHours is the weekly working time of one full-time
	// caregiver (38.5h per the ordinance).
	WeeklyFullTimeHours float64
	// NightShiftHours is the length of the night shift window.
	NightShiftHours float64
	// DefaultMaxPatientsPerCaregiver applies when a station carries no
	// ratio of its own.
	DefaultMaxPatientsPerCaregiver float64
	// Timezone resolves shift boundaries for admission/discharge instants.
	Timezone string
	// MonthlyBackfillZero counts days without a daily aggregate as zero in
	// monthly averages instead of excluding them.
	MonthlyBackfillZero bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "staffing"),
			Password: getEnv("DB_PASSWORD", "staffing"),
			Database: getEnv("DB_NAME", "staffing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", false),
		},
		HIS: HISConfig{
			DSN:           getEnv("HIS_DSN", ""),
			TransferTable: getEnv("HIS_TRANSFER_TABLE", "dbo.PatientTransfers"),
			PatientTable:  getEnv("HIS_PATIENT_TABLE", "dbo.Patients"),
			PollSeconds:   getEnvInt("HIS_POLL_SECONDS", 300),
			Enabled:       getEnvBool("HIS_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Staffing: StaffingConfig{
			WeeklyFullTimeHours:            getEnvFloat("STAFFING_WEEKLY_HOURS", 38.5),
			NightShiftHours:                getEnvFloat("STAFFING_NIGHT_SHIFT_HOURS", 8),
			DefaultMaxPatientsPerCaregiver: getEnvFloat("STAFFING_MAX_PATIENTS_PER_CAREGIVER", 20),
			Timezone:                       getEnv("STAFFING_TIMEZONE", "Europe/Berlin"),
			MonthlyBackfillZero:            getEnvBool("STAFFING_MONTHLY_BACKFILL_ZERO", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
