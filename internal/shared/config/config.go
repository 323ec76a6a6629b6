package config

import (
	"fmt"
	"time"

	"civsim-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Simulation SimulationConfig
}

type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

// SimulationConfig holds the defaults applied to runs that do not set a
// value explicitly, plus the hard limits enforced on API requests.
type SimulationConfig struct {
	StarCount         int
	CivilizationCount int
	Steps             int
	UniverseSize      float64
	Seed              int64
	MaxSteps          int
	MaxStars          int
	GridCellSize      float64
	RetainedRuns      int

	// MaxRequestWork caps stars times steps for runs submitted over HTTP,
	// which execute inside the request. Zero disables the cap.
	MaxRequestWork int
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads and validates the configuration from the environment without
// publishing it to GlobalConfig.
func Load() (*Config, error) {
	config := &Config{
		Server:     loadServerConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Auth:       loadAuthConfig(),
		Frontend:   loadFrontendConfig(),
		Logging:    loadLoggingConfig(),
		RateLimit:  loadRateLimitConfig(),
		Simulation: loadSimulationConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout := utils.GetEnvInt("SERVER_READ_TIMEOUT_SECONDS", 15)
	writeTimeout := utils.GetEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 120)
	idleTimeout := utils.GetEnvInt("SERVER_IDLE_TIMEOUT_SECONDS", 60)
	shutdownTimeout := utils.GetEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)

	return ServerConfig{
		Port:            utils.GetEnv("SERVER_PORT", "8080"),
		Environment:     utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:     time.Duration(readTimeout) * time.Second,
		WriteTimeout:    time.Duration(writeTimeout) * time.Second,
		IdleTimeout:     time.Duration(idleTimeout) * time.Second,
		ShutdownTimeout: time.Duration(shutdownTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	connMaxLifetime := utils.GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	return DatabaseConfig{
		Enabled:         utils.GetEnvBool("DB_ENABLED", false),
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "civsim"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadRedisConfig() RedisConfig {
	ttl := utils.GetEnvInt("REDIS_SUMMARY_TTL_MINUTES", 60)

	return RedisConfig{
		Enabled:  utils.GetEnvBool("REDIS_ENABLED", false),
		URL:      utils.GetEnv("REDIS_URL", ""),
		Host:     utils.GetEnv("REDIS_HOST", "localhost"),
		Port:     utils.GetEnv("REDIS_PORT", "6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		DB:       utils.GetEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(ttl) * time.Minute,
	}
}

func loadAuthConfig() AuthConfig {
	tokenExpiration := utils.GetEnvInt("JWT_EXPIRATION_HOURS", 24)

	return AuthConfig{
		JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
		TokenExpiration: time.Duration(tokenExpiration) * time.Hour,
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnvBool("CORS_DEBUG", false),
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production" || utils.GetEnv("LOG_FORMAT", "text") == "json"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "info"),
		Format:     utils.GetEnv("LOG_FORMAT", "text"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           utils.GetEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerSecond: utils.GetEnvFloat("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
		BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 20),
		TrustProxy:        utils.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		StarCount:         utils.GetEnvInt("SIM_STAR_COUNT", 1000),
		CivilizationCount: utils.GetEnvInt("SIM_CIVILIZATION_COUNT", 5),
		Steps:             utils.GetEnvInt("SIM_STEPS", 500),
		UniverseSize:      utils.GetEnvFloat("SIM_UNIVERSE_SIZE", 1000.0),
		Seed:              utils.GetEnvInt64("SIM_SEED", 0),
		MaxSteps:          utils.GetEnvInt("SIM_MAX_STEPS", 5000),
		MaxStars:          utils.GetEnvInt("SIM_MAX_STARS", 20000),
		GridCellSize:      utils.GetEnvFloat("SIM_GRID_CELL_SIZE", 0),
		RetainedRuns:      utils.GetEnvInt("SIM_RETAINED_RUNS", 16),
		MaxRequestWork:    utils.GetEnvInt("SIM_MAX_REQUEST_WORK", 1_000_000),
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST_SIZE must be positive")
	}

	sim := c.Simulation
	if sim.StarCount <= 0 {
		return fmt.Errorf("SIM_STAR_COUNT must be positive")
	}
	if sim.CivilizationCount < 0 {
		return fmt.Errorf("SIM_CIVILIZATION_COUNT must not be negative")
	}
	if sim.Steps < 0 {
		return fmt.Errorf("SIM_STEPS must not be negative")
	}
	if sim.UniverseSize <= 0 {
		return fmt.Errorf("SIM_UNIVERSE_SIZE must be positive")
	}
	if sim.MaxSteps < sim.Steps {
		return fmt.Errorf("SIM_MAX_STEPS must be at least SIM_STEPS")
	}
	if sim.MaxStars < sim.StarCount {
		return fmt.Errorf("SIM_MAX_STARS must be at least SIM_STAR_COUNT")
	}
	if sim.GridCellSize < 0 {
		return fmt.Errorf("SIM_GRID_CELL_SIZE must not be negative")
	}
	if sim.RetainedRuns <= 0 {
		return fmt.Errorf("SIM_RETAINED_RUNS must be positive")
	}
	if sim.MaxRequestWork < 0 {
		return fmt.Errorf("SIM_MAX_REQUEST_WORK must not be negative")
	}
	if sim.MaxRequestWork > 0 && sim.MaxRequestWork < sim.StarCount*sim.Steps {
		return fmt.Errorf("SIM_MAX_REQUEST_WORK must allow SIM_STAR_COUNT times SIM_STEPS")
	}

	return nil
}

// AuthConfigured reports whether operator endpoints can validate tokens.
func (c *Config) AuthConfigured() bool {
	return c.Auth.JWTSecret != ""
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
