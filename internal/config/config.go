package config

import (
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Circulation
		Sweep
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Circulation struct {
		LateFeeDailyRate    string // decimal string, e.g. "0.50"
		DefaultLoanDays     int
		ReservationHoldDays int
		LostBookCharge      string // decimal string; "0" disables lost-book fines
	}
	Sweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 2 * * *" = daily at 02:00
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

const DefaultDatabasePath = "./circulation.db"

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Lending policy defaults
	v.SetDefault("late_fee_daily_rate", "0.50")
	v.SetDefault("default_loan_days", 14)
	v.SetDefault("reservation_hold_days", 7)
	v.SetDefault("lost_book_charge", "0")

	// Sweep defaults
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_schedule", "0 2 * * *") // Daily at 02:00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Circulation: Circulation{
			LateFeeDailyRate:    v.GetString("LATE_FEE_DAILY_RATE"),
			DefaultLoanDays:     v.GetInt("DEFAULT_LOAN_DAYS"),
			ReservationHoldDays: v.GetInt("RESERVATION_HOLD_DAYS"),
			LostBookCharge:      v.GetString("LOST_BOOK_CHARGE"),
		},
		Sweep: Sweep{
			Enabled:  v.GetBool("SWEEP_ENABLED"),
			Schedule: v.GetString("SWEEP_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
