package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Logger       LoggerConfig
	Analyzer     AnalyzerConfig
	Planner      PlannerConfig
	Orchestrator OrchestratorConfig
	Notification NotificationConfig
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

// RedisConfig holds the optional capability-cache connection values.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

// KafkaConfig holds the optional resolution event sink values. An
// empty broker list disables the sink.
type KafkaConfig struct {
	Brokers          []string
	ResolutionsTopic string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AnalyzerConfig holds ticket analysis thresholds.
type AnalyzerConfig struct {
	ClassifyThreshold float64
	MaxKeyPoints      int
}

// PlannerConfig holds response planning thresholds.
type PlannerConfig struct {
	ApprovalThreshold    float64
	ReadabilityThreshold float64
}

// OrchestratorConfig holds workflow retry and quality settings. The
// quality floor is deliberately separate from the planner's approval
// threshold; the two gate different things.
type OrchestratorConfig struct {
	QualityFloor          float64
	RetryMaxAttempts      int
	RetryBaseDelayMs      int
	RetryMaxDelayMs       int
	ProcessTimeoutSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-triage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Redis: RedisConfig{
			Addr:       os.Getenv("REDIS_ADDR"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         redisDB,
			TTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 600),
		},
		Kafka: KafkaConfig{
			Brokers:          splitList(os.Getenv("KAFKA_BROKERS")),
			ResolutionsTopic: getEnv("KAFKA_RESOLUTIONS_TOPIC", "ticket-resolutions"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Analyzer: AnalyzerConfig{
			ClassifyThreshold: getEnvAsFloat("ANALYZER_CLASSIFY_THRESHOLD", 0.7),
			MaxKeyPoints:      getEnvAsInt("ANALYZER_MAX_KEY_POINTS", 10),
		},
		Planner: PlannerConfig{
			ApprovalThreshold:    getEnvAsFloat("PLANNER_APPROVAL_THRESHOLD", 0.6),
			ReadabilityThreshold: getEnvAsFloat("PLANNER_READABILITY_THRESHOLD", 60),
		},
		Orchestrator: OrchestratorConfig{
			QualityFloor:          getEnvAsFloat("ORCHESTRATOR_QUALITY_FLOOR", 0.4),
			RetryMaxAttempts:      getEnvAsInt("ORCHESTRATOR_RETRY_MAX_ATTEMPTS", 3),
			RetryBaseDelayMs:      getEnvAsInt("ORCHESTRATOR_RETRY_BASE_DELAY_MS", 100),
			RetryMaxDelayMs:       getEnvAsInt("ORCHESTRATOR_RETRY_MAX_DELAY_MS", 2000),
			ProcessTimeoutSeconds: getEnvAsInt("ORCHESTRATOR_PROCESS_TIMEOUT_SECONDS", 30),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
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

// CacheTTL returns the capability cache entry lifetime.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.TTLSeconds) * time.Second
}

// RetryBaseDelay returns the first backoff delay.
func (o OrchestratorConfig) RetryBaseDelay() time.Duration {
	return time.Duration(o.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the backoff cap.
func (o OrchestratorConfig) RetryMaxDelay() time.Duration {
	return time.Duration(o.RetryMaxDelayMs) * time.Millisecond
}

// ProcessTimeout returns the per-ticket processing deadline.
func (o OrchestratorConfig) ProcessTimeout() time.Duration {
	if o.ProcessTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(o.ProcessTimeoutSeconds) * time.Second
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
