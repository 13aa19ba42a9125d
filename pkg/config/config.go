package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Passport  PassportConfig
	Dashboard DashboardConfig
	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls admin session issuance and the backing store.
type SessionConfig struct {
	Store        string
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	CookieDomain string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig holds the whitelists students pick from during registration.
type CatalogConfig struct {
	CourseOptions  []string
	PaymentMethods []string
}

// PassportConfig controls passport upload storage & validation.
type PassportConfig struct {
	StorageDir        string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
}

// DashboardConfig tunes dashboard aggregates.
type DashboardConfig struct {
	RecentDays int
}

// BootstrapConfig seeds the first admin and rules document on an empty database.
type BootstrapConfig struct {
	AdminUsername    string
	AdminEmail       string
	AdminPassword    string
	SeedDefaultRules bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	store := strings.ToLower(strings.TrimSpace(v.GetString("SESSION_STORE")))
	if store != SessionStoreRedis {
		store = SessionStorePostgres
	}
	cfg.Session = SessionConfig{
		Store:        store,
		Secret:       v.GetString("SESSION_SECRET"),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("SESSION_COOKIE_SECURE"),
		CookieDomain: v.GetString("SESSION_COOKIE_DOMAIN"),
	}
	if cfg.Session.Store == SessionStoreRedis {
		cfg.Redis.Enabled = true
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		CourseOptions:  splitAndTrim(v.GetString("COURSE_OPTIONS")),
		PaymentMethods: splitAndTrim(v.GetString("PAYMENT_METHODS")),
	}

	maxPassportSize := v.GetInt64("PASSPORT_MAX_FILE_SIZE")
	if maxPassportSize <= 0 {
		maxPassportSize = 5 * 1024 * 1024
	}
	cfg.Passport = PassportConfig{
		StorageDir:        v.GetString("PASSPORT_STORAGE_DIR"),
		MaxFileSizeBytes:  maxPassportSize,
		AllowedExtensions: splitAndTrim(strings.ToLower(v.GetString("PASSPORT_ALLOWED_EXTENSIONS"))),
		SignedURLSecret:   v.GetString("PASSPORT_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("PASSPORT_SIGNED_URL_TTL"), 15*time.Minute),
	}

	recentDays := v.GetInt("DASHBOARD_RECENT_DAYS")
	if recentDays <= 0 {
		recentDays = 30
	}
	cfg.Dashboard = DashboardConfig{RecentDays: recentDays}

	cfg.Bootstrap = BootstrapConfig{
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		SeedDefaultRules: v.GetBool("SEED_DEFAULT_RULES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pediforte")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_STORE", SessionStorePostgres)
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_COOKIE_NAME", "pediforte_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_COOKIE_DOMAIN", "")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:4200,http://127.0.0.1:5000,http://localhost:5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("COURSE_OPTIONS", "Fullstack Development,Frontend Development,Web Development,Cybersecurity,Data Science,Mobile App Development,UI/UX Design")
	v.SetDefault("PAYMENT_METHODS", "cash,bank_transfer")

	v.SetDefault("PASSPORT_STORAGE_DIR", "./uploads/passports")
	v.SetDefault("PASSPORT_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("PASSPORT_ALLOWED_EXTENSIONS", "png,jpg,jpeg,gif,pdf")
	v.SetDefault("PASSPORT_SIGNED_URL_SECRET", "dev_passport_secret")
	v.SetDefault("PASSPORT_SIGNED_URL_TTL", "15m")

	v.SetDefault("DASHBOARD_RECENT_DAYS", 30)

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@pediforte.com")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SEED_DEFAULT_RULES", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
