package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Env          string        `yaml:"env"`
	Port         string        `yaml:"port"`
	BaseURL      string        `yaml:"base_url"`
	LogPath      string        `yaml:"log_path"`
	AccessSecret string        `yaml:"access_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	BcryptCost   int           `yaml:"bcrypt_cost"`

	DB   DBConfig   `yaml:"database"`
	Mail MailConfig `yaml:"mail"`
	LLM  LLMConfig  `yaml:"llm"`
	Chat ChatConfig `yaml:"chat"`

	// TokenCleanupSpec is the cron spec for purging expired reset tokens and revocations.
	TokenCleanupSpec string `yaml:"token_cleanup_spec"`
}

// DBConfig 数据库连接配置
type DBConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
}

type MailConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	From          string `yaml:"from"`
	SupportEmail  string `yaml:"support_email"`
	TestMode      bool   `yaml:"test_mode"`
	TestRecipient string `yaml:"test_recipient"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUser      string `yaml:"smtp_user"`
	SMTPPassword  string `yaml:"smtp_password"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type ChatConfig struct {
	// Replier is simulated, planner or llm. Empty picks llm when an API key is set.
	Replier    string        `yaml:"replier"`
	ReplyDelay time.Duration `yaml:"reply_delay"`
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultConfig() *Config {
	return &Config{
		Env:        "development",
		Port:       "8080",
		BaseURL:    "http://localhost:3000",
		LogPath:    "./log",
		SessionTTL: 7 * 24 * time.Hour,
		BcryptCost: 12,
		DB: DBConfig{
			Driver:       "mysql",
			MaxOpenConns: 5,
			ConnTimeout:  10 * time.Second,
		},
		Mail: MailConfig{
			Provider:      "resend",
			From:          "EnviroAgent <no-reply@enviroagent.org>",
			SupportEmail:  "support@enviroagent.org",
			TestRecipient: "support@enviroagent.org",
			SMTPPort:      587,
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Chat: ChatConfig{
			ReplyDelay: 1500 * time.Millisecond,
		},
		TokenCleanupSpec: "@every 15m",
	}
}

// LoadConfig loads .env, then an optional YAML file named by CONFIG_FILE, then
// applies environment overrides.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("failed to load the env file")
	}

	cfg := defaultConfig()
	// test mode follows the environment unless the file or EMAIL_TEST_MODE sets it
	testModeSet := false
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		var explicit struct {
			Mail struct {
				TestMode *bool `yaml:"test_mode"`
			} `yaml:"mail"`
		}
		if err := yaml.Unmarshal(data, &explicit); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		testModeSet = explicit.Mail.TestMode != nil
	}

	if err := applyEnv(cfg, &testModeSet); err != nil {
		return nil, err
	}
	if !testModeSet {
		cfg.Mail.TestMode = !cfg.IsProduction()
	}

	if cfg.AccessSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("ACCESS_SECRET must be set in production")
		}
		cfg.AccessSecret = "dev-access-secret"
	}
	switch cfg.DB.Driver {
	case "mysql", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	switch cfg.Chat.Replier {
	case "", "simulated", "planner", "llm":
	default:
		return nil, fmt.Errorf("unsupported CHAT_REPLIER %q", cfg.Chat.Replier)
	}
	if cfg.Chat.Replier == "llm" && cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("CHAT_REPLIER=llm needs LLM_API_KEY")
	}
	return cfg, nil
}

func applyEnv(cfg *Config, testModeSet *bool) error {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.BaseURL, "NEXTAUTH_URL")
	setString(&cfg.BaseURL, "PUBLIC_BASE_URL")
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	setString(&cfg.LogPath, "LOG_PATH")
	setString(&cfg.AccessSecret, "ACCESS_SECRET")
	setString(&cfg.DB.Driver, "DB_DRIVER")
	setString(&cfg.DB.DSN, "DATABASE_URL")
	setString(&cfg.Mail.Provider, "MAIL_PROVIDER")
	setString(&cfg.Mail.APIKey, "RESEND_API_KEY")
	setString(&cfg.Mail.From, "MAIL_FROM")
	setString(&cfg.Mail.SupportEmail, "SUPPORT_EMAIL")
	setString(&cfg.Mail.TestRecipient, "EMAIL_TEST_RECIPIENT")
	setString(&cfg.Mail.SMTPHost, "SMTP_HOST")
	setString(&cfg.Mail.SMTPUser, "SMTP_USER")
	setString(&cfg.Mail.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.Chat.Replier, "CHAT_REPLIER")
	setString(&cfg.TokenCleanupSpec, "TOKEN_CLEANUP_SPEC")

	if err := setInt(&cfg.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB.MaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Mail.SMTPPort, "SMTP_PORT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.DB.ConnTimeout, "DB_CONN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Chat.ReplyDelay, "CHAT_REPLY_DELAY"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("EMAIL_TEST_MODE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EMAIL_TEST_MODE %q: %w", v, err)
		}
		cfg.Mail.TestMode = b
		*testModeSet = true
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
