package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Library   LibraryConfig
	Chat      ChatConfig
	Quizzes   QuizConfig
	Proposals ProposalConfig
	Committee CommitteeConfig
	FaceRec   FaceRecConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes read-path caching of reference collections.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// LibraryConfig governs circulation rules.
type LibraryConfig struct {
	Enabled         bool
	LoanPeriod      time.Duration
	DailyFineAmount float64
	MaxCopiesPerGen int
	MaxActiveLoans  int
}

// ChatConfig gates the messaging endpoints.
type ChatConfig struct {
	Enabled     bool
	PageSize    int
	MaxBodySize int
}

// QuizConfig gates quiz endpoints and the attempt timeout sweep.
type QuizConfig struct {
	Enabled       bool
	SweepInterval time.Duration
}

// ProposalConfig gates the scheduler proposal endpoints.
type ProposalConfig struct {
	Enabled bool
}

// CommitteeConfig gates the grade approval workflow endpoints.
type CommitteeConfig struct {
	Enabled bool
}

// FaceRecConfig points at the external face recognition service and
// tunes the training watcher.
type FaceRecConfig struct {
	Enabled      bool
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
}

// ReportsConfig configures asynchronous export generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	WorkerConcurrency int
	WorkerRetries     int
	LinkTTL           time.Duration
	Retention         time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
	}

	cfg.Library = LibraryConfig{
		Enabled:         v.GetBool("ENABLE_LIBRARY"),
		LoanPeriod:      parseDuration(v.GetString("LIBRARY_LOAN_PERIOD"), 14*24*time.Hour),
		DailyFineAmount: v.GetFloat64("LIBRARY_DAILY_FINE"),
		MaxCopiesPerGen: v.GetInt("LIBRARY_MAX_COPIES_PER_GEN"),
		MaxActiveLoans:  v.GetInt("LIBRARY_MAX_ACTIVE_LOANS"),
	}

	cfg.Chat = ChatConfig{
		Enabled:     v.GetBool("ENABLE_CHAT"),
		PageSize:    v.GetInt("CHAT_PAGE_SIZE"),
		MaxBodySize: v.GetInt("CHAT_MAX_BODY_SIZE"),
	}

	cfg.Quizzes = QuizConfig{
		Enabled:       v.GetBool("ENABLE_QUIZZES"),
		SweepInterval: parseDuration(v.GetString("QUIZ_SWEEP_INTERVAL"), time.Minute),
	}

	cfg.Proposals = ProposalConfig{
		Enabled: v.GetBool("ENABLE_PROPOSALS"),
	}

	cfg.Committee = CommitteeConfig{
		Enabled: v.GetBool("ENABLE_COMMITTEE"),
	}

	cfg.FaceRec = FaceRecConfig{
		Enabled:      v.GetBool("ENABLE_FACEREC"),
		BaseURL:      v.GetString("FACEREC_BASE_URL"),
		Timeout:      parseDuration(v.GetString("FACEREC_TIMEOUT"), 5*time.Second),
		PollInterval: parseDuration(v.GetString("FACEREC_POLL_INTERVAL"), time.Second),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		LinkTTL:           parseDuration(v.GetString("REPORTS_LINK_TTL"), 24*time.Hour),
		Retention:         parseDuration(v.GetString("REPORTS_RETENTION"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ums")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")

	v.SetDefault("ENABLE_LIBRARY", true)
	v.SetDefault("LIBRARY_LOAN_PERIOD", "336h")
	v.SetDefault("LIBRARY_DAILY_FINE", 0.5)
	v.SetDefault("LIBRARY_MAX_COPIES_PER_GEN", 100)
	v.SetDefault("LIBRARY_MAX_ACTIVE_LOANS", 5)

	v.SetDefault("ENABLE_CHAT", true)
	v.SetDefault("CHAT_PAGE_SIZE", 50)
	v.SetDefault("CHAT_MAX_BODY_SIZE", 4000)

	v.SetDefault("ENABLE_QUIZZES", true)
	v.SetDefault("QUIZ_SWEEP_INTERVAL", "1m")

	v.SetDefault("ENABLE_PROPOSALS", true)
	v.SetDefault("ENABLE_COMMITTEE", true)

	v.SetDefault("ENABLE_FACEREC", false)
	v.SetDefault("FACEREC_BASE_URL", "http://localhost:5000")
	v.SetDefault("FACEREC_TIMEOUT", "5s")
	v.SetDefault("FACEREC_POLL_INTERVAL", "1s")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
	v.SetDefault("REPORTS_LINK_TTL", "24h")
	v.SetDefault("REPORTS_RETENTION", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
