package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the project config values
type Config struct {
	URL                   string        `mapstructure:"DB_URI"`
	DatabaseName          string        `mapstructure:"DB_NAME"`
	BaseURL               string        `mapstructure:"BASE_URL"`
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	JWTSecret             string        `mapstructure:"JWT_SECRET"`
	TokenTTL              time.Duration `mapstructure:"TOKEN_TTL"`
	SendGridAPIKey        string        `mapstructure:"SENDGRID_API_KEY"`
	EmailFrom             string        `mapstructure:"EMAIL_FROM"`
	EmailFromName         string        `mapstructure:"EMAIL_FROM_NAME"`
	ReminderCooldown      time.Duration `mapstructure:"REMINDER_COOLDOWN"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MorningReminderCron   string        `mapstructure:"MORNING_REMINDER_CRON"`
	AfternoonReminderCron string        `mapstructure:"AFTERNOON_REMINDER_CRON"`
	EveningReminderCron   string        `mapstructure:"EVENING_REMINDER_CRON"`
	SchedulerEnabled      bool          `mapstructure:"SCHEDULER_ENABLED"`
}

var defaults = map[string]interface{}{
	"DB_URI":                  "mongodb://127.0.0.1:27017",
	"DB_NAME":                 "adherence",
	"BASE_URL":                "http://localhost",
	"PORT":                    "8080",
	"ENV":                     "local",
	"JWT_SECRET":              "",
	"TOKEN_TTL":               24 * time.Hour,
	"SENDGRID_API_KEY":        "",
	"EMAIL_FROM":              "reminders@localhost",
	"EMAIL_FROM_NAME":         "Medication Reminders",
	"REMINDER_COOLDOWN":       4 * time.Minute,
	"REQUEST_TIMEOUT":         30 * time.Second,
	"MORNING_REMINDER_CRON":   "0 8 * * *",
	"AFTERNOON_REMINDER_CRON": "0 13 * * *",
	"EVENING_REMINDER_CRON":   "0 20 * * *",
	"SCHEDULER_ENABLED":       true,
}

// New sets up all config related services
func New() *Config {
	conf, err := Load()
	if err != nil {
		zap.S().Fatalw("failed to load config", "error", err)
	}

	logger, err := setLogger(conf.Env)
	if err != nil {
		zap.S().Fatalw("failed to build logger", "env", conf.Env, "error", err)
	}
	_ = zap.ReplaceGlobals(logger)

	return conf
}

// Load reads the environment, and an optional .env file, into a Config
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	// the .env file is optional
	_ = v.ReadInConfig()

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if conf.ReminderCooldown < 0 {
		return nil, fmt.Errorf("REMINDER_COOLDOWN must not be negative, got %s", conf.ReminderCooldown)
	}
	return conf, nil
}

// setLogger builds the zap logger for the given environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return c.Build()
	default:
		return zap.NewDevelopment()
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(zap.Error(err)).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
