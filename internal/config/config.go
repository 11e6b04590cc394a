package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Auth      AuthConfig
	Google    GoogleConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is honored.
	// Empty means the socket peer is the client.
	TrustedProxies []string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type AuthConfig struct {
	JWTSecret          string
	JWTAlgorithm       string
	AccessTTLMinutes   int
	RefreshTTLMinutes  int
	BootstrapAdminMail string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("PGHOST", "localhost")
	v.SetDefault("PGPORT", "5432")
	v.SetDefault("PGSSLMODE", "disable")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRATION_MINUTES", 60)
	v.SetDefault("REFRESH_TOKEN_EXPIRATION_MINUTES", 60*24*14)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	return Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		Postgres: PostgresConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("PGHOST"),
			Port:        v.GetString("PGPORT"),
			User:        v.GetString("PGUSER"),
			Password:    v.GetString("PGPASSWORD"),
			Database:    v.GetString("PGDATABASE"),
			SSLMode:     v.GetString("PGSSLMODE"),
		},
		Auth: AuthConfig{
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTAlgorithm:       v.GetString("JWT_ALGORITHM"),
			AccessTTLMinutes:   v.GetInt("ACCESS_TOKEN_EXPIRATION_MINUTES"),
			RefreshTTLMinutes:  v.GetInt("REFRESH_TOKEN_EXPIRATION_MINUTES"),
			BootstrapAdminMail: v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_OAUTH_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_OAUTH_CLIENT_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerMinute: v.GetInt("RATE_LIMIT_REQUESTS_PER_MINUTE"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}, nil
}

// splitList accepts a comma separated list; blanks are dropped.
func splitList(raw string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
