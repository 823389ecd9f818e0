package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
)

// Config is the runtime configuration of the heartbeat binaries, read from
// the environment after an optional .env file.
type Config struct {
	Environment string
	RiskProfile string
	// ProfileFile overrides RiskProfile with a JSON or YAML profile
	ProfileFile string

	Heartbeat struct {
		LogDir       string
		OrderLogPath string
		MaxGap       time.Duration
		BatchSize    int
		AssumeFills  bool
	}

	Sizing struct {
		EURPerUSD float64
		// MaxSleeveRiskEUR of zero means derive it from the budget
		MaxSleeveRiskEUR float64
	}

	Monitoring struct {
		MetricsAddr string
	}

	State struct {
		Dir string
	}

	Notifications struct {
		TelegramToken    string
		TelegramChatID   string
		MaxAlertsPerHour int
		BreakerFailures  int
		BreakerCooldown  time.Duration
	}
}

// Defaults used when a variable is unset
const (
	DefaultRiskProfile  = "starter_10k"
	DefaultMaxGap       = 26 * time.Hour
	DefaultBatchSize    = 1
	DefaultEURPerUSD    = 0.92
	DefaultHeartbeatDir = "logs/heartbeats"
	DefaultOrderLogPath = "logs/orders.jsonl"
	DefaultStateDir     = "state"
)

// LoadEnvFile loads a .env file if it exists. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapError(err, errors.ErrorCategoryConfiguration, "config", "load_env").
			WithContext("path", path)
	}
	return nil
}

// Load reads the configuration from the environment
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		RiskProfile: strings.ToLower(getEnv("RISK_PROFILE", DefaultRiskProfile)),
		ProfileFile: getEnv("RISK_PROFILE_FILE", ""),
	}

	cfg.Heartbeat.LogDir = getEnv("HEARTBEAT_LOG_DIR", DefaultHeartbeatDir)
	cfg.Heartbeat.OrderLogPath = getEnv("ORDER_LOG_PATH", DefaultOrderLogPath)
	cfg.Heartbeat.MaxGap = time.Duration(getEnvInt("HEARTBEAT_MAX_GAP_SECONDS", int(DefaultMaxGap/time.Second))) * time.Second
	cfg.Heartbeat.BatchSize = getEnvInt("HEARTBEAT_BATCH_SIZE", DefaultBatchSize)
	cfg.Heartbeat.AssumeFills = getEnvBool("ASSUME_FILLS", true)

	cfg.Sizing.EURPerUSD = getEnvFloat("EUR_PER_USD", DefaultEURPerUSD)
	cfg.Sizing.MaxSleeveRiskEUR = getEnvFloat("MAX_SLEEVE_RISK_EUR", 0)

	cfg.Monitoring.MetricsAddr = getEnv("METRICS_ADDR", "")
	cfg.State.Dir = getEnv("STATE_DIR", DefaultStateDir)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")
	cfg.Notifications.MaxAlertsPerHour = getEnvInt("ALERTS_PER_HOUR", 6)
	cfg.Notifications.BreakerFailures = getEnvInt("ALERT_BREAKER_FAILURES", 3)
	cfg.Notifications.BreakerCooldown = time.Duration(getEnvInt("ALERT_BREAKER_COOLDOWN_SECONDS", 600)) * time.Second
	return cfg
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	if c.Heartbeat.MaxGap <= 0 {
		return errors.NewConfigurationError("config", "validate", "HEARTBEAT_MAX_GAP_SECONDS must be positive")
	}
	if c.Heartbeat.BatchSize <= 0 {
		return errors.NewConfigurationError("config", "validate", "HEARTBEAT_BATCH_SIZE must be positive")
	}
	if !(c.Sizing.EURPerUSD > 0) {
		return errors.NewConfigurationError("config", "validate", "EUR_PER_USD must be positive")
	}
	if c.Notifications.MaxAlertsPerHour <= 0 || c.Notifications.BreakerFailures <= 0 || c.Notifications.BreakerCooldown <= 0 {
		return errors.NewConfigurationError("config", "validate", "alert throttling settings must be positive")
	}
	if c.Sizing.MaxSleeveRiskEUR < 0 {
		return errors.NewConfigurationError("config", "validate", "MAX_SLEEVE_RISK_EUR must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether both telegram settings are present
func (c *Config) TelegramEnabled() bool {
	return c.Notifications.TelegramToken != "" && c.Notifications.TelegramChatID != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
