package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatcher.
type Config struct {
	Sim      SimConfig
	Data     DataConfig
	Monitor  MonitorConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

// SimConfig holds the simulation and assignment knobs.
type SimConfig struct {
	DayStart            string  `mapstructure:"DAY_START"`
	DayEnd              string  `mapstructure:"DAY_END"`
	TickStepMinutes     int     `mapstructure:"TICK_STEP_MINUTES"`
	TickSleepSeconds    int     `mapstructure:"TICK_SLEEP_SECONDS"`
	LockWindowMinutes   int     `mapstructure:"LOCK_WINDOW_MINUTES"`
	UrgentWindowMinutes int     `mapstructure:"URGENT_WINDOW_MINUTES"`
	ServiceTimeMinutes  int     `mapstructure:"SERVICE_TIME_MINUTES"`
	OverloadCap         int     `mapstructure:"OVERLOAD_CAP"`
	OverloadCapFinal    int     `mapstructure:"OVERLOAD_CAP_FINAL"`
	ClassUpgradeMax     int     `mapstructure:"CLASS_UPGRADE_MAX"`
	RouteFillMax        int     `mapstructure:"ROUTE_FILL_MAX"`
	AvgSpeedKmph        float64 `mapstructure:"AVG_SPEED_KMPH"`
	RoadFactor          float64 `mapstructure:"ROAD_FACTOR"`
	RandomSeed          int64   `mapstructure:"RANDOM_SEED"`
}

// DataConfig holds the input dataset and log file paths.
type DataConfig struct {
	VehiclesFile string `mapstructure:"VEHICLES_FILE"`
	BookingsFile string `mapstructure:"BOOKINGS_FILE"`
	InstantsFile string `mapstructure:"INSTANT_BOOKINGS_FILE"`
	LogFile      string `mapstructure:"LOG_FILE"`
}

// MonitorConfig holds the live-monitor HTTP server settings.
type MonitorConfig struct {
	Enabled      bool          `mapstructure:"MONITOR_ENABLED"`
	Host         string        `mapstructure:"MONITOR_HOST"`
	Port         int           `mapstructure:"MONITOR_PORT"`
	ReadTimeout  time.Duration `mapstructure:"MONITOR_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"MONITOR_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"MONITOR_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings for run persistence.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"PERSIST_ENABLED"`
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings for the distance cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"CACHE_ENABLED"`
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     int           `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	PoolSize int           `mapstructure:"REDIS_POOL_SIZE"`
	TTL      time.Duration `mapstructure:"CACHE_TTL"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the monitor listen address in host:port format.
func (m *MonitorConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("DAY_START", "06:00")
	viper.SetDefault("DAY_END", "19:00")
	viper.SetDefault("TICK_STEP_MINUTES", 30)
	viper.SetDefault("TICK_SLEEP_SECONDS", 6)
	viper.SetDefault("LOCK_WINDOW_MINUTES", 120)
	viper.SetDefault("URGENT_WINDOW_MINUTES", 60)
	viper.SetDefault("SERVICE_TIME_MINUTES", 30)
	viper.SetDefault("OVERLOAD_CAP", 8)
	viper.SetDefault("OVERLOAD_CAP_FINAL", 10)
	viper.SetDefault("CLASS_UPGRADE_MAX", 9)
	viper.SetDefault("ROUTE_FILL_MAX", 3)
	viper.SetDefault("AVG_SPEED_KMPH", 40.0)
	viper.SetDefault("ROAD_FACTOR", 1.3)
	viper.SetDefault("RANDOM_SEED", 42)

	viper.SetDefault("VEHICLES_FILE", "data/vehicles.json")
	viper.SetDefault("BOOKINGS_FILE", "data/bookings.json")
	viper.SetDefault("INSTANT_BOOKINGS_FILE", "data/instant_bookings.json")
	viper.SetDefault("LOG_FILE", "dispatch.log")

	viper.SetDefault("MONITOR_ENABLED", true)
	viper.SetDefault("MONITOR_HOST", "0.0.0.0")
	viper.SetDefault("MONITOR_PORT", 8080)
	viper.SetDefault("MONITOR_READ_TIMEOUT", "5s")
	viper.SetDefault("MONITOR_WRITE_TIMEOUT", "10s")
	viper.SetDefault("MONITOR_IDLE_TIMEOUT", "120s")

	viper.SetDefault("PERSIST_ENABLED", false)
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "dispatch")
	viper.SetDefault("POSTGRES_PASSWORD", "dispatch_secret")
	viper.SetDefault("POSTGRES_DB", "dispatch_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("POSTGRES_MIN_CONNS", 2)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)
	viper.SetDefault("CACHE_TTL", "24h")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Simulation ──────────────────────────────────────
	cfg.Sim = SimConfig{
		DayStart:            viper.GetString("DAY_START"),
		DayEnd:              viper.GetString("DAY_END"),
		TickStepMinutes:     viper.GetInt("TICK_STEP_MINUTES"),
		TickSleepSeconds:    viper.GetInt("TICK_SLEEP_SECONDS"),
		LockWindowMinutes:   viper.GetInt("LOCK_WINDOW_MINUTES"),
		UrgentWindowMinutes: viper.GetInt("URGENT_WINDOW_MINUTES"),
		ServiceTimeMinutes:  viper.GetInt("SERVICE_TIME_MINUTES"),
		OverloadCap:         viper.GetInt("OVERLOAD_CAP"),
		OverloadCapFinal:    viper.GetInt("OVERLOAD_CAP_FINAL"),
		ClassUpgradeMax:     viper.GetInt("CLASS_UPGRADE_MAX"),
		RouteFillMax:        viper.GetInt("ROUTE_FILL_MAX"),
		AvgSpeedKmph:        viper.GetFloat64("AVG_SPEED_KMPH"),
		RoadFactor:          viper.GetFloat64("ROAD_FACTOR"),
		RandomSeed:          viper.GetInt64("RANDOM_SEED"),
	}

	// ── Data files ──────────────────────────────────────
	cfg.Data = DataConfig{
		VehiclesFile: viper.GetString("VEHICLES_FILE"),
		BookingsFile: viper.GetString("BOOKINGS_FILE"),
		InstantsFile: viper.GetString("INSTANT_BOOKINGS_FILE"),
		LogFile:      viper.GetString("LOG_FILE"),
	}

	// ── Monitor ─────────────────────────────────────────
	cfg.Monitor = MonitorConfig{
		Enabled:      viper.GetBool("MONITOR_ENABLED"),
		Host:         viper.GetString("MONITOR_HOST"),
		Port:         viper.GetInt("MONITOR_PORT"),
		ReadTimeout:  viper.GetDuration("MONITOR_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("MONITOR_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("MONITOR_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Enabled:  viper.GetBool("PERSIST_ENABLED"),
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Enabled:  viper.GetBool("CACHE_ENABLED"),
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		TTL:      viper.GetDuration("CACHE_TTL"),
	}

	return cfg, nil
}
