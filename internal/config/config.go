package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	Version   string
	JWTSecret string
	JWTTTL    time.Duration

	DB       DatabaseConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Publish  PublishConfig
	Provider ProviderConfig
	CORS     CORSConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WorkerConfig controls the scheduled refresh job.
type WorkerConfig struct {
	RefreshEnabled  bool
	RefreshSchedule string
	RefreshTimeout  time.Duration
}

// PublishConfig contains pacing for Instagram and Telegram delivery.
type PublishConfig struct {
	InstagramRetryBase      time.Duration
	InstagramInterItem      time.Duration
	InstagramPollInterval   time.Duration
	InstagramPollTimeout    time.Duration
	TelegramRetryBase       time.Duration
	TelegramProductDelay    time.Duration
	TelegramDownloadTimeout time.Duration
	TelegramBatchLimit      int
	QueueResultLimit        int
}

// ProviderConfig holds third-party endpoints. Overridable for staging.
type ProviderConfig struct {
	InstagramGraphURL  string
	TelegramAPIURL     string
	IkasTokenURL       string // contains one %s for the store name
	IkasGraphQLURL     string
	SiteProductsURL    string
	SiteUpdatePriceURL string
	TrendyolBaseURL    string
}

// CORSConfig lists allowed browser origins by host.
type CORSConfig struct {
	AllowedHosts []string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.Version = getEnv("APP_VERSION", "1.0.0")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.DB = DatabaseConfig{
		Host:         getEnv("DB_HOST", ""),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", ""),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", ""),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Provider = ProviderConfig{
		InstagramGraphURL:  getEnv("INSTAGRAM_GRAPH_URL", "https://graph.facebook.com/v18.0"),
		TelegramAPIURL:     getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		IkasTokenURL:       getEnv("IKAS_TOKEN_URL", "https://%s.myikas.com/api/admin/oauth/token"),
		IkasGraphQLURL:     getEnv("IKAS_GRAPHQL_URL", "https://api.myikas.com/api/v1/admin/graphql"),
		SiteProductsURL:    getEnv("SITE_PRODUCTS_URL", "https://swassonline.coddepo.com/Special/SpecialApps/GetTrendyolProducts"),
		SiteUpdatePriceURL: getEnv("SITE_UPDATE_PRICE_URL", "https://swassonline.coddepo.com/Special/SpecialApps/UpdateSitePrice"),
		TrendyolBaseURL:    getEnv("TRENDYOL_BASE_URL", "https://www.trendyol.com"),
	}
	if strings.Count(cfg.Provider.IkasTokenURL, "%s") != 1 {
		return nil, errors.New("IKAS_TOKEN_URL must contain exactly one %s placeholder for the store name")
	}

	cfg.CORS = CORSConfig{
		AllowedHosts: splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")),
	}

	cfg.Worker.RefreshEnabled = getEnvBool("REFRESH_ENABLED", true)
	cfg.Worker.RefreshSchedule = getEnv("REFRESH_SCHEDULE", "0 */6 * * *")
	if _, err := cron.ParseStandard(cfg.Worker.RefreshSchedule); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
	}

	cfg.Publish.TelegramBatchLimit = getEnvInt("TELEGRAM_BATCH_LIMIT", 30)
	cfg.Publish.QueueResultLimit = getEnvInt("QUEUE_RESULT_LIMIT", 50)

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.JWTTTL, "JWT_TTL", "24h"},
		{&cfg.DB.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME", "5m"},
		{&cfg.Worker.RefreshTimeout, "REFRESH_TIMEOUT", "30m"},
		{&cfg.Publish.InstagramRetryBase, "INSTAGRAM_RETRY_BASE", "2s"},
		{&cfg.Publish.InstagramInterItem, "INSTAGRAM_INTER_ITEM_DELAY", "3s"},
		{&cfg.Publish.InstagramPollInterval, "INSTAGRAM_POLL_INTERVAL", "3s"},
		{&cfg.Publish.InstagramPollTimeout, "INSTAGRAM_POLL_TIMEOUT", "90s"},
		{&cfg.Publish.TelegramRetryBase, "TELEGRAM_RETRY_BASE", "3s"},
		{&cfg.Publish.TelegramProductDelay, "TELEGRAM_PRODUCT_DELAY", "2s"},
		{&cfg.Publish.TelegramDownloadTimeout, "TELEGRAM_DOWNLOAD_TIMEOUT", "15s"},
	}
	for _, d := range durations {
		v, err := parseDurationEnv(d.key, d.def)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
