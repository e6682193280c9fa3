package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Policy       PolicyConfig
	Engine       EngineConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters. The engine only
// verifies tokens; issuance lives with the identity provider.
type AuthConfig struct {
	JWTSecret string
}

// NotificationConfig holds best-effort notification endpoints.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// PolicyConfig is the priority and SLA policy table. Weights and windows
// are configuration with recognized keys, never hard-coded logic.
type PolicyConfig struct {
	BaseWeights     map[domain.GrievanceCategory]float64
	SLAWindows      map[domain.GrievanceCategory]time.Duration
	EmergencySLA    time.Duration
	EmergencyFloor  float64
	AgeBonusPerHour float64
	AgeBonusCap     float64
}

// EngineConfig bounds the optimistic-concurrency retry loop and the
// idempotency result retention window.
type EngineConfig struct {
	ConflictRetryAttempts int
	ConflictRetryBaseMS   int
	IdempotencyTTLMinutes int
}

var defaultBaseWeights = map[domain.GrievanceCategory]float64{
	domain.CategoryRoad:        0.40,
	domain.CategoryWater:       0.50,
	domain.CategoryElectricity: 0.50,
	domain.CategoryHealth:      0.60,
	domain.CategoryEducation:   0.35,
	domain.CategorySanitation:  0.30,
	domain.CategoryOther:       0.25,
}

var defaultSLAHours = map[domain.GrievanceCategory]int{
	domain.CategoryRoad:        120,
	domain.CategoryWater:       72,
	domain.CategoryElectricity: 48,
	domain.CategoryHealth:      48,
	domain.CategoryEducation:   168,
	domain.CategorySanitation:  96,
	domain.CategoryOther:       168,
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
		Policy: loadPolicy(),
		Engine: EngineConfig{
			ConflictRetryAttempts: getEnvAsInt("ENGINE_CONFLICT_RETRY_ATTEMPTS", 3),
			ConflictRetryBaseMS:   getEnvAsInt("ENGINE_CONFLICT_RETRY_BASE_MS", 10),
			IdempotencyTTLMinutes: getEnvAsInt("ENGINE_IDEMPOTENCY_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// DefaultPolicy returns the built-in policy table.
func DefaultPolicy() PolicyConfig {
	policy := PolicyConfig{
		BaseWeights:     make(map[domain.GrievanceCategory]float64, len(defaultBaseWeights)),
		SLAWindows:      make(map[domain.GrievanceCategory]time.Duration, len(defaultSLAHours)),
		EmergencySLA:    24 * time.Hour,
		EmergencyFloor:  0.8,
		AgeBonusPerHour: 0.002,
		AgeBonusCap:     0.15,
	}
	for category, weight := range defaultBaseWeights {
		policy.BaseWeights[category] = weight
	}
	for category, hours := range defaultSLAHours {
		policy.SLAWindows[category] = time.Duration(hours) * time.Hour
	}
	return policy
}

func loadPolicy() PolicyConfig {
	policy := DefaultPolicy()
	policy.EmergencySLA = time.Duration(getEnvAsInt("POLICY_EMERGENCY_SLA_HOURS", 24)) * time.Hour
	policy.EmergencyFloor = getEnvAsFloat("POLICY_EMERGENCY_FLOOR", policy.EmergencyFloor)
	policy.AgeBonusPerHour = getEnvAsFloat("POLICY_AGE_BONUS_PER_HOUR", policy.AgeBonusPerHour)
	policy.AgeBonusCap = getEnvAsFloat("POLICY_AGE_BONUS_CAP", policy.AgeBonusCap)
	for category, weight := range policy.BaseWeights {
		key := "POLICY_BASE_WEIGHT_" + strings.ToUpper(string(category))
		policy.BaseWeights[category] = getEnvAsFloat(key, weight)
	}
	for category, window := range policy.SLAWindows {
		key := "POLICY_SLA_HOURS_" + strings.ToUpper(string(category))
		policy.SLAWindows[category] = time.Duration(getEnvAsInt(key, int(window/time.Hour))) * time.Hour
	}
	return policy
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the notification dispatch timeout.
func (n NotificationConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// IdempotencyTTL returns the retention window for idempotent results.
func (e EngineConfig) IdempotencyTTL() time.Duration {
	if e.IdempotencyTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(e.IdempotencyTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
