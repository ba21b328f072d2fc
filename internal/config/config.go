package config

import (
	"fmt"
	"os"
	"strconv"
)

// Store backends selectable via STORE_BACKEND.
const (
	BackendMemory     = "memory"
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// Config holds the application configuration
type Config struct {
	Port string

	// Store backend selection
	StoreBackend string
	SQLitePath   string

	// ClickHouse configuration (required when StoreBackend is clickhouse)
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Circulation policy. Two conflicting fine policies exist upstream
	// (0.50/day uncapped vs 5/day capped at 100); neither is hard-coded
	// here, operators pick one via FINE_RATE_PER_DAY and MAX_FINE.
	LoanPeriodDays int
	ExtensionDays  int
	FineRatePerDay float64
	MaxFine        float64
	ReservationFee float64

	// SeedFile, when set, is a JSON catalog loaded once into an empty store.
	SeedFile string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.Port = os.Getenv("PORT")
	if config.Port == "" {
		config.Port = "8080"
	}

	config.StoreBackend = os.Getenv("STORE_BACKEND")
	if config.StoreBackend == "" {
		config.StoreBackend = BackendSQLite
	}

	switch config.StoreBackend {
	case BackendMemory:
		// Nothing further to configure.
	case BackendSQLite:
		config.SQLitePath = os.Getenv("SQLITE_PATH")
		if config.SQLitePath == "" {
			config.SQLitePath = "data/circulation.db"
		}
	case BackendClickHouse:
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORE_BACKEND is clickhouse")
		}

		portStr := os.Getenv("CLICKHOUSE_PORT")
		if portStr == "" {
			config.ClickHousePort = 9000 // Default ClickHouse native port
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
			}
			config.ClickHousePort = port
		}

		config.ClickHouseDatabase = os.Getenv("CLICKHOUSE_DATABASE")
		if config.ClickHouseDatabase == "" {
			config.ClickHouseDatabase = "default"
		}

		config.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
		if config.ClickHouseUser == "" {
			config.ClickHouseUser = "default"
		}

		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		// Password is optional, can be empty

		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND: %s", config.StoreBackend)
	}

	var err error
	if config.LoanPeriodDays, err = intEnv("LOAN_PERIOD_DAYS", 14); err != nil {
		return nil, err
	}
	if config.ExtensionDays, err = intEnv("EXTENSION_DAYS", 14); err != nil {
		return nil, err
	}
	if config.FineRatePerDay, err = floatEnv("FINE_RATE_PER_DAY", 0.50); err != nil {
		return nil, err
	}
	if config.MaxFine, err = floatEnv("MAX_FINE", 0); err != nil {
		return nil, err
	}
	if config.ReservationFee, err = floatEnv("RESERVATION_FEE", 1.0); err != nil {
		return nil, err
	}

	config.SeedFile = os.Getenv("SEED_FILE")

	return config, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
