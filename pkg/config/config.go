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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Grading  GradingConfig
	Summary  SummaryConfig
	Fallback FallbackConfig
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
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GradingConfig carries institution-tunable grading policy. The attendance
// weights (late counts half, excused 0.7) mirror the values observed in
// production; they are pending product confirmation and deliberately not
// hard-coded at call sites.
type GradingConfig struct {
	LateWeight    float64
	ExcusedWeight float64

	// Letter thresholds on the 0-10 scale, highest first.
	ThresholdA float64
	ThresholdB float64
	ThresholdC float64
	ThresholdD float64
}

// SummaryConfig tunes the subject grade summary builder.
type SummaryConfig struct {
	CacheTTL    time.Duration
	Concurrency int
}

// FallbackConfig gates the deterministic mock provider used when the
// backing store is unreachable.
type FallbackConfig struct {
	Enabled bool
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

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grading = GradingConfig{
		LateWeight:    v.GetFloat64("ATTENDANCE_LATE_WEIGHT"),
		ExcusedWeight: v.GetFloat64("ATTENDANCE_EXCUSED_WEIGHT"),
		ThresholdA:    v.GetFloat64("LETTER_THRESHOLD_A"),
		ThresholdB:    v.GetFloat64("LETTER_THRESHOLD_B"),
		ThresholdC:    v.GetFloat64("LETTER_THRESHOLD_C"),
		ThresholdD:    v.GetFloat64("LETTER_THRESHOLD_D"),
	}

	cfg.Summary = SummaryConfig{
		CacheTTL:    parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 5*time.Minute),
		Concurrency: v.GetInt("SUMMARY_CONCURRENCY"),
	}

	cfg.Fallback = FallbackConfig{Enabled: v.GetBool("ENABLE_FALLBACK_DATA")}

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
	v.SetDefault("DB_NAME", "gradebook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_LATE_WEIGHT", 0.5)
	v.SetDefault("ATTENDANCE_EXCUSED_WEIGHT", 0.7)
	v.SetDefault("LETTER_THRESHOLD_A", 9)
	v.SetDefault("LETTER_THRESHOLD_B", 8)
	v.SetDefault("LETTER_THRESHOLD_C", 7)
	v.SetDefault("LETTER_THRESHOLD_D", 6)

	v.SetDefault("SUMMARY_CACHE_TTL", "5m")
	v.SetDefault("SUMMARY_CONCURRENCY", 4)

	v.SetDefault("ENABLE_FALLBACK_DATA", true)
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
