package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProd = "prod"

var (
	dbUserEmptyError      = errors.New("DB User is Empty")
	dbNameEmptyError      = errors.New("DB Name is Empty")
	envLoadError          = errors.New(".env load Error")
	configFileError       = errors.New("config file read Error")
	skipVerifyInProd      = errors.New("GITHUB_WEBHOOK_SKIP_VERIFY is not allowed when APP_ENV=prod")
	simulateInProd        = errors.New("CHAIN_SIMULATE is not allowed when APP_ENV=prod")
	missingProdSecret     = errors.New("required secret is empty")
	invalidBatchSize      = errors.New("CRON_PAYOUT_BATCH_SIZE must be positive")
	invalidRequestTimeout = errors.New("APP_REQUEST_TIMEOUT must be positive")
)

type AppConfig struct {
	Env            string        `mapstructure:"env"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
	User     string `mapstructure:"user"`
	URL      string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CronConfig struct {
	Secret          string        `mapstructure:"secret"`
	PayoutBatchSize int           `mapstructure:"payout_batch_size"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
}

type GitHubConfig struct {
	WebhookSecret     string `mapstructure:"webhook_secret"`
	WebhookSkipVerify bool   `mapstructure:"webhook_skip_verify"`
	Token             string `mapstructure:"token"`
	APIURL            string `mapstructure:"api_url"`
}

type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	PlatformAddress string        `mapstructure:"platform_address"`
	TransferMethod  string        `mapstructure:"transfer_method"`
	Simulate        bool          `mapstructure:"simulate"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	PayoutsInterval    time.Duration `mapstructure:"payouts_interval"`
	StaleTasksInterval time.Duration `mapstructure:"stale_tasks_interval"`
	GitHubSyncInterval time.Duration `mapstructure:"github_sync_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	App            AppConfig       `mapstructure:"app"`
	Database       DatabaseConfig  `mapstructure:"database"`
	MigrationsPath string          `mapstructure:"migrations_path"`
	Auth           AuthConfig      `mapstructure:"auth"`
	Cron           CronConfig      `mapstructure:"cron"`
	GitHub         GitHubConfig    `mapstructure:"github"`
	Chain          ChainConfig     `mapstructure:"chain"`
	Scheduler      SchedulerConfig `mapstructure:"scheduler"`
	Log            LogConfig       `mapstructure:"log"`
}

// LoadConfig читает .env (если есть), config.yaml (если есть) и переменные
// окружения. Ключ app.request_timeout соответствует APP_REQUEST_TIMEOUT.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", envLoadError, err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", configFileError, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := makeDbUrl(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.request_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("migrations_path", "migrations")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("cron.secret", "")
	v.SetDefault("cron.payout_batch_size", 10)
	v.SetDefault("cron.stale_after", "720h")

	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.webhook_skip_verify", false)
	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", "")

	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.platform_address", "")
	v.SetDefault("chain.transfer_method", "payout_transfer")
	v.SetDefault("chain.simulate", false)
	v.SetDefault("chain.timeout", "30s")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.payouts_interval", "5m")
	v.SetDefault("scheduler.stale_tasks_interval", "24h")
	v.SetDefault("scheduler.github_sync_interval", "6h")

	v.SetDefault("log.level", "dev")
	v.SetDefault("log.file", "")
}

// Validate проверяет инварианты, которые нельзя выразить значениями по умолчанию
func (c *Config) Validate() error {
	if c.Cron.PayoutBatchSize <= 0 {
		return invalidBatchSize
	}
	if c.App.RequestTimeout <= 0 {
		return invalidRequestTimeout
	}

	if c.App.Env != EnvProd {
		return nil
	}
	if c.GitHub.WebhookSkipVerify {
		return skipVerifyInProd
	}
	if c.Chain.Simulate {
		return simulateInProd
	}
	for name, value := range map[string]string{
		"GITHUB_WEBHOOK_SECRET": c.GitHub.WebhookSecret,
		"CRON_SECRET":           c.Cron.Secret,
		"AUTH_JWT_SECRET":       c.Auth.JWTSecret,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s", missingProdSecret, name)
		}
	}
	return nil
}

func makeDbUrl(cfg *Config) error {
	if cfg.Database.URL == "" {
		if cfg.Database.User == "" {
			return dbUserEmptyError
		}
		if cfg.Database.Name == "" {
			return dbNameEmptyError
		}
		cfg.Database.URL = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name,
		)
	}
	return nil
}
