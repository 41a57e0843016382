package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App      App      `mapstructure:",squash"`
	Server   Server   `mapstructure:",squash"`
	Database Database `mapstructure:",squash"`
	Graph    Graph    `mapstructure:",squash"`
	Webhook  Webhook  `mapstructure:",squash"`
	Cache    Cache    `mapstructure:",squash"`
	SyncJobs SyncJobs `mapstructure:",squash"`
	Realtime Realtime `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

// Graph holds the upstream graph API settings.
type Graph struct {
	BaseURL        string        `mapstructure:"graph_base_url"`
	URL            string        `mapstructure:"-"`
	Version        string        `mapstructure:"graph_version"`
	AccessToken    string        `mapstructure:"graph_access_token"`
	RequestTimeout time.Duration `mapstructure:"graph_request_timeout"`
	MaxAttempts    int           `mapstructure:"graph_max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"graph_retry_base_delay"`
	RateLimitRPS   float64       `mapstructure:"graph_rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"graph_rate_limit_burst"`
}

// Webhook holds the shared secrets used to verify inbound notifications.
type Webhook struct {
	VerifyToken string `mapstructure:"webhook_verify_token"`
	AppSecret   string `mapstructure:"webhook_app_secret"`
}

type Cache struct {
	Dir          string        `mapstructure:"cache_dir"`
	InMemory     bool          `mapstructure:"cache_in_memory"`
	AccountsTTL  time.Duration `mapstructure:"cache_accounts_ttl"`
	CampaignsTTL time.Duration `mapstructure:"cache_campaigns_ttl"`
	InsightsTTL  time.Duration `mapstructure:"cache_insights_ttl"`
}

type SyncJobs struct {
	AccountsCron      string `mapstructure:"sync_accounts_cron"`
	CampaignsCron     string `mapstructure:"sync_campaigns_cron"`
	InsightsCron      string `mapstructure:"sync_insights_cron"`
	LookbackDays      int    `mapstructure:"sync_insights_lookback_days"`
	MaxConcurrentJobs int    `mapstructure:"sync_max_concurrent_jobs"`
	Enabled           bool   `mapstructure:"sync_enabled"`
}

type Realtime struct {
	Enabled bool `mapstructure:"realtime_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/ads")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("GRAPH_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("GRAPH_VERSION", "v22.0")
	viper.SetDefault("GRAPH_ACCESS_TOKEN", "your_access_token") // ONLY LOCAL
	viper.SetDefault("GRAPH_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("GRAPH_MAX_ATTEMPTS", 3)
	viper.SetDefault("GRAPH_RETRY_BASE_DELAY", "1s")
	viper.SetDefault("GRAPH_RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("GRAPH_RATE_LIMIT_BURST", 10)

	viper.SetDefault("WEBHOOK_VERIFY_TOKEN", "your_verify_token")
	viper.SetDefault("WEBHOOK_APP_SECRET", "your_app_secret")

	viper.SetDefault("CACHE_DIR", "/tmp/ads-dashboard-cache")
	viper.SetDefault("CACHE_IN_MEMORY", false)
	viper.SetDefault("CACHE_ACCOUNTS_TTL", "60m")
	viper.SetDefault("CACHE_CAMPAIGNS_TTL", "30m")
	viper.SetDefault("CACHE_INSIGHTS_TTL", "15m")

	viper.SetDefault("SYNC_ACCOUNTS_CRON", "0 2 * * *")
	viper.SetDefault("SYNC_CAMPAIGNS_CRON", "30 2 * * *")
	viper.SetDefault("SYNC_INSIGHTS_CRON", "0 3 * * *")
	viper.SetDefault("SYNC_INSIGHTS_LOOKBACK_DAYS", 7)
	viper.SetDefault("SYNC_MAX_CONCURRENT_JOBS", 3)
	viper.SetDefault("SYNC_ENABLED", false)

	viper.SetDefault("REALTIME_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Using variables loaded by godotenv (viper could not read .env):", err)
	} else {
		logrus.Info(".env file read by viper")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Graph.URL = fmt.Sprintf("%s/%s", config.Graph.BaseURL, config.Graph.Version)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// loadEnvFile loads the .env file via godotenv, trying a few locations.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Could not determine current directory:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../.env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info(".env loaded from:", location)
			return
		}
	}

	logrus.Warn("No .env file found in any known location")
}
