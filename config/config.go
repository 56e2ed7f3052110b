package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFile     = "file"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config holds every environment-driven setting for the API server and the
// alert monitor.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StorageBackend string
	LocalStorePath string
	MongoURI       string
	MongoDatabase  string
	DatabaseURL    string

	DefaultUserID string
	JWTSecret     string
	RequireAuth   bool
	CORSOrigin    string
	OTPRateLimit  int
	InternalKey   string

	AlphaVantageKey  string
	GeminiKey        string
	GroqKey          string
	HuggingFaceKey   string
	CryptoCurrency   string
	CryptoAPIBaseURL string

	SMTPServer    string
	SMTPPort      int
	EmailSender   string
	EmailPassword string

	KafkaBootstrapServers string
	KafkaAPIKey           string
	KafkaAPISecret        string

	AlertPollInterval time.Duration
	NotifyWorkers     int
}

// LoadEnv reads a .env file into the process environment if one exists.
func LoadEnv(files ...string) error {
	return godotenv.Load(files...)
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LocalStorePath: getEnv("LOCAL_STORE_PATH", "local_store.json"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "finzora"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		DefaultUserID: getEnv("DEFAULT_USER_ID", "default_user"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RequireAuth:   getBool("REQUIRE_AUTH", false),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
		OTPRateLimit:  getInt("OTP_RATE_LIMIT", 5),
		InternalKey:   os.Getenv("INTERNAL_API_KEY"),

		AlphaVantageKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
		GeminiKey:        os.Getenv("GOOGLE_GEMINI_API_KEY"),
		GroqKey:          os.Getenv("GROQ_API_KEY"),
		HuggingFaceKey:   os.Getenv("HUGGINGFACE_API_KEY"),
		CryptoCurrency:   getEnv("CRYPTO_VS_CURRENCY", "inr"),
		CryptoAPIBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),

		SMTPServer:    getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		EmailSender:   os.Getenv("EMAIL_SENDER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),

		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaAPIKey:           os.Getenv("KAFKA_API_KEY"),
		KafkaAPISecret:        os.Getenv("KAFKA_API_SECRET"),

		AlertPollInterval: getDuration("ALERT_POLL_INTERVAL", 60*time.Second),
		NotifyWorkers:     getInt("NOTIFY_WORKERS", 4),
	}

	// "demo" is the placeholder key handed out by Alpha Vantage.
	if cfg.AlphaVantageKey == "demo" {
		cfg.AlphaVantageKey = ""
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "finzora-dev-secret"
	}

	cfg.StorageBackend = strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	if cfg.StorageBackend == "" {
		switch {
		case cfg.MongoURI != "":
			cfg.StorageBackend = StorageMongo
		case cfg.DatabaseURL != "":
			cfg.StorageBackend = StoragePostgres
		default:
			cfg.StorageBackend = StorageFile
		}
	}
	return cfg
}

func (c *Config) Development() bool {
	return c.Env != "production"
}

func (c *Config) SMTPConfigured() bool {
	return c.EmailSender != "" && c.EmailPassword != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// bare numbers are seconds
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
