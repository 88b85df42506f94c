package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	// Auth configuration
	AuthMode                 string // "local" (HS256 issued here) or "jwks" (external IdP)
	JWTSecret                string
	AccessTokenExpireMinutes int
	JWKSURL                  string
	// Login throttle
	RedisURL           string
	MaxLoginAttempts   int
	LoginWindowSeconds int
	// Demo developer bootstrap (created when no developer account exists)
	DemoDeveloperEmail        string
	DemoDeveloperPassword     string
	DemoDeveloperName         string
	DemoDeveloperCompanyTitle string
	// Outbound email; console fallback when user/password are unset
	SMTPServer      string
	SMTPPort        string
	SMTPUser        string
	SMTPPassword    string
	SMTPFrom        string
	NotifyDefaultTo string
	// AI analysis
	EnableAIAnalysis bool
	GeminiAPIKey     string
	GeminiModel      string
	// Logging
	LogDir      string // when set, logs are duplicated to timestamped files here
	MaxLogFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		// Auth configuration
		AuthMode:                 getEnv("AUTH_MODE", "local"),
		JWTSecret:                getEnv("SECRET_KEY", "dev-secret-change-me"),
		AccessTokenExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7),
		JWKSURL:                  getEnv("JWKS_URL", ""),
		// Login throttle
		RedisURL:           getEnv("REDIS_URL", ""),
		MaxLoginAttempts:   getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginWindowSeconds: getEnvInt("LOGIN_WINDOW_SECONDS", 900),
		// Demo developer bootstrap
		DemoDeveloperEmail:        getEnv("DEMO_DEVELOPER_EMAIL", "dev@demo.local"),
		DemoDeveloperPassword:     getEnv("DEMO_DEVELOPER_PASSWORD", "demo1234"),
		DemoDeveloperName:         getEnv("DEMO_DEVELOPER_NAME", "Demo Developer"),
		DemoDeveloperCompanyTitle: getEnv("DEMO_DEVELOPER_COMPANY_TITLE", "Demo Developer"),
		// Email
		SMTPServer:      getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", "noreply@autohub.local"),
		NotifyDefaultTo: getEnv("ADMIN_EMAIL", "admin@autohub.local"),
		// AI analysis
		EnableAIAnalysis: getEnv("ENABLE_AI_ANALYSIS", "false") == "true",
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		MaxLogFiles: getEnvInt("MAX_LOG_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	case "dev":
		return "dev_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
