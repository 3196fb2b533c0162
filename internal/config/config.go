package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

type Config struct {
	Environment       string   // ENV: production, development, etc.
	Port              string
	AllowedOrigins    []string // CORS: from ALLOWED_ORIGINS, "*" when unset
	TrustProxyHeaders bool     // honour X-Forwarded-For / X-Real-IP for client IPs

	Store           StoreConfig
	RedisURI        string // optional; enables the history cache and Redis rate limiting
	HistoryCacheTTL time.Duration

	AI AIConfig

	SentimentClamp    bool
	EnforceUserExists bool

	LogLevel string
	LogFile  string
}

type StoreConfig struct {
	Driver        string
	SQLitePath    string
	PostgresURI   string
	MongoURI      string
	MongoDatabase string
}

// AIConfig holds the external text generator settings. An empty key for the
// selected provider leaves the service in fallback-only mode.
type AIConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	ArkAPIKey     string
	ArkModel      string
	ArkBaseURL    string
	ArkRegion     string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
}

// Load reads configuration from the environment. Call godotenv.Load first if
// a .env file should be honoured.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	cfg := &Config{
		Environment:    env,
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: allowedOrigins,
		Store: StoreConfig{
			Driver:        strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", DriverSQLite))),
			SQLitePath:    getEnv("SQLITE_PATH", "mindcare.db"),
			PostgresURI:   getEnv("POSTGRES_URI", "postgres://localhost:5432/mindcare?sslmode=disable"),
			MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/mindcare")),
			MongoDatabase: getEnv("MONGODB_DATABASE", ""),
		},
		RedisURI: getEnv("REDIS_URI", ""),
		AI: AIConfig{
			Provider:      strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", ProviderOpenAI))),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			ArkAPIKey:     getEnv("ARK_API_KEY", ""),
			ArkModel:      getEnv("ARK_MODEL", ""),
			ArkBaseURL:    getEnv("ARK_BASE_URL", ""),
			ArkRegion:     getEnv("ARK_REGION", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.TrustProxyHeaders, err = getBool("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}
	if cfg.HistoryCacheTTL, err = getDuration("HISTORY_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AI.MaxTokens, err = getInt("AI_MAX_TOKENS", 300); err != nil {
		return nil, err
	}
	if cfg.AI.Temperature, err = getFloat("AI_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.AI.Timeout, err = getDuration("AI_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SentimentClamp, err = getBool("SENTIMENT_CLAMP", false); err != nil {
		return nil, err
	}
	if cfg.EnforceUserExists, err = getBool("ENFORCE_USER_EXISTS", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER: unsupported driver %q", c.Store.Driver)
	}
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("AI_PROVIDER: unsupported provider %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT: must be positive")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// Enabled reports whether the selected provider has a credential.
func (a AIConfig) Enabled() bool {
	switch a.Provider {
	case ProviderArk:
		return strings.TrimSpace(a.ArkAPIKey) != "" && strings.TrimSpace(a.ArkModel) != ""
	default:
		return strings.TrimSpace(a.OpenAIKey) != ""
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", key, raw)
	}
	return v, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid int %q", key, raw)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q", key, raw)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}
