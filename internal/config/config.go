package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"PORT" validate:"required"`
	DBDSN     string `mapstructure:"DB_DSN" validate:"required"`
	UploadDir string `mapstructure:"UPLOAD_DIR" validate:"required"`
	LogFile   string `mapstructure:"LOG_FILE"`
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Bootstrap admins: external ids receive notifications, handles pass the gate.
	AdminIDs       []string `mapstructure:"-"`
	AdminUsernames []string `mapstructure:"-"`
	SuperAdmin     string   `mapstructure:"SUPERADMIN"`
	AutoApprove    bool     `mapstructure:"AUTO_APPROVE"`

	SessionBackend string        `mapstructure:"SESSION_BACKEND" validate:"oneof=memory redis"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR" validate:"required_if=SessionBackend redis"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	KafkaBrokers []string `mapstructure:"-"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	// RelayURL receives outbound chat messages; empty logs them instead.
	RelayURL          string `mapstructure:"RELAY_URL" validate:"omitempty,url"`
	WebhookSecretHash string `mapstructure:"WEBHOOK_SECRET_HASH"`
	DashboardHash     string `mapstructure:"DASHBOARD_TOKEN_HASH"`
	TemplatesDir      string `mapstructure:"TEMPLATES_DIR"`
}

var defaults = map[string]any{
	"PORT":            "8080",
	"DB_DSN":          "honeydesk.db",
	"UPLOAD_DIR":      "./data",
	"LOG_FILE":        "",
	"LOG_LEVEL":       "info",
	"SUPERADMIN":      "",
	"AUTO_APPROVE":    true,
	"SESSION_BACKEND": "memory",
	"SESSION_TTL":     "24h",
	"REDIS_ADDR":      "",
	"REDIS_PASSWORD":  "",
	"REDIS_DB":        0,
	"KAFKA_TOPIC":     "honeydesk.events",
	"RELAY_URL":       "",
	"TEMPLATES_DIR":   "./web/templates",

	"WEBHOOK_SECRET_HASH":  "",
	"DASHBOARD_TOKEN_HASH": "",
	"ADMIN_IDS":            "",
	"ADMIN_USERNAMES":      "",
	"KAFKA_BROKERS":        "",
}

// Load reads .env (if present), the optional config file and the
// environment, in increasing precedence.
func Load(file string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.AdminIDs = SplitList(v.GetString("ADMIN_IDS"))
	cfg.AdminUsernames = SplitList(v.GetString("ADMIN_USERNAMES"))
	cfg.KafkaBrokers = SplitList(v.GetString("KAFKA_BROKERS"))
	cfg.SuperAdmin = strings.TrimPrefix(strings.TrimSpace(cfg.SuperAdmin), "@")

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	log.Printf("[config] PORT=%s DB_DSN=%s UPLOAD_DIR=%s SESSION_BACKEND=%s admins=%d", cfg.Port, cfg.DBDSN, cfg.UploadDir, cfg.SessionBackend, len(cfg.AdminIDs)+len(cfg.AdminUsernames))
	return cfg, nil
}

// SplitList splits "a, b,,c" into [a b c]; leading "@" on handles is dropped.
func SplitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimPrefix(strings.TrimSpace(t), "@"); t != "" {
			out = append(out, t)
		}
	}
	return out
}
