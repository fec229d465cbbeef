package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	Sweep SweepConfig
}

type AppConfig struct {
	Port       string
	Env        string
	CORSOrigin string
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// SweepConfig controls the daily archival sweep.
// RunAt is a wall-clock time in HH:MM (24h) local time.
type SweepConfig struct {
	RunAt string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	sweepRunAt := viper.GetString("SWEEP_RUN_AT")
	if sweepRunAt == "" {
		sweepRunAt = "01:00"
	}

	migrationsPath := viper.GetString("DB_MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "db/migrations"
	}

	corsOrigin := viper.GetString("APP_CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	config := &Config{
		App: AppConfig{
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			CORSOrigin: corsOrigin,
		},
		DB: DBConfig{
			Host:           viper.GetString("DB_HOST"),
			Port:           viper.GetString("DB_PORT"),
			User:           viper.GetString("DB_USER"),
			Password:       viper.GetString("DB_PASSWORD"),
			Name:           viper.GetString("DB_NAME"),
			MigrationsPath: migrationsPath,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Sweep: SweepConfig{
			RunAt: sweepRunAt,
		},
	}

	return config, nil
}
