package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Comment handling when a post is deleted.
const (
	CommentPolicyCascade  = "cascade"
	CommentPolicyRestrict = "restrict"
	CommentPolicyKeep     = "keep"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	SecretKey          string
	DatabaseURL        string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Session cookie
	SessionName          string
	SessionMaxAgeMinutes int
	SessionSecure        bool
	// Redis backs the session store when RedisHost is set
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Blog behaviour
	CommentDeletePolicy string
	PasswordIterations  int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// LoadFile builds a configuration from the JSON file at path (optional), defaults,
// a .env file in the working directory (optional) and the process environment,
// in increasing order of precedence.
func LoadFile(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, fmt.Errorf("read %s: %w", path, err)
	}
	applyDefaults(&c)

	// godotenv never overrides variables that are already set.
	_ = godotenv.Load()

	if err := applyEnvOverrides(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects values the application cannot run with.
func (c AppConfig) Validate() error {
	switch c.CommentDeletePolicy {
	case CommentPolicyCascade, CommentPolicyRestrict, CommentPolicyKeep:
	default:
		return fmt.Errorf("unknown comment delete policy %q", c.CommentDeletePolicy)
	}
	if c.PasswordIterations < 1 {
		return fmt.Errorf("password iterations must be positive, got %d", c.PasswordIterations)
	}
	if c.SessionMaxAgeMinutes < 1 {
		return fmt.Errorf("session max age must be positive, got %d minutes", c.SessionMaxAgeMinutes)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit must be positive, got %d per minute", c.RateLimitPerMinute)
	}
	return nil
}

// loadJSONConfig reads the grouped JSON file into out if present.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw struct {
		App struct {
			AppPort             string
			SecretKey           string
			RateLimitPerMinute  int
			AllowedOrigins      []string
			CommentDeletePolicy string
			PasswordIterations  int
		} `json:"app"`
		Gin struct {
			Mode string
			Path string
		} `json:"gin"`
		Database struct {
			DatabaseURL string
		} `json:"database"`
		Session struct {
			Name          string
			MaxAgeMinutes int
			Secure        bool
		} `json:"session"`
		Redis struct {
			RedisHost     string
			RedisPort     int
			RedisDB       int
			RedisPassword string
		} `json:"redis"`
		Log struct {
			Level      string
			Path       string
			MaxSizeMB  int
			MaxBackups int
			MaxAgeDays int
			Compress   bool
		} `json:"log"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	out.AppPort = raw.App.AppPort
	out.SecretKey = raw.App.SecretKey
	out.RateLimitPerMinute = raw.App.RateLimitPerMinute
	out.AllowedOrigins = raw.App.AllowedOrigins
	out.CommentDeletePolicy = strings.ToLower(raw.App.CommentDeletePolicy)
	out.PasswordIterations = raw.App.PasswordIterations
	out.GinMode = raw.Gin.Mode
	out.GinPath = raw.Gin.Path
	out.DatabaseURL = raw.Database.DatabaseURL
	out.SessionName = raw.Session.Name
	out.SessionMaxAgeMinutes = raw.Session.MaxAgeMinutes
	out.SessionSecure = raw.Session.Secure
	out.RedisHost = raw.Redis.RedisHost
	out.RedisPort = raw.Redis.RedisPort
	out.RedisDB = raw.Redis.RedisDB
	out.RedisPassword = raw.Redis.RedisPassword
	out.LogLevel = raw.Log.Level
	out.LogPath = raw.Log.Path
	out.LogMaxSizeMB = raw.Log.MaxSizeMB
	out.LogMaxBackups = raw.Log.MaxBackups
	out.LogMaxAgeDays = raw.Log.MaxAgeDays
	out.LogCompress = raw.Log.Compress
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "5000"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sqlite://blog.db"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.SessionName == "" {
		c.SessionName = "blog_session"
	}
	if c.SessionMaxAgeMinutes == 0 {
		c.SessionMaxAgeMinutes = 7 * 24 * 60
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CommentDeletePolicy == "" {
		c.CommentDeletePolicy = CommentPolicyCascade
	}
	if c.PasswordIterations == 0 {
		c.PasswordIterations = 600000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var errs []string
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid integer %q", key, v))
			return
		}
		*dst = i
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("PORT", &c.AppPort)
	setString("SECRET_KEY", &c.SecretKey)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_PATH", &c.GinPath)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	setString("SESSION_NAME", &c.SessionName)
	setInt("SESSION_MAX_AGE_MINUTES", &c.SessionMaxAgeMinutes)
	setBool("SESSION_SECURE", &c.SessionSecure)
	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)
	if v := os.Getenv("COMMENT_DELETE_POLICY"); v != "" {
		c.CommentDeletePolicy = strings.ToLower(strings.TrimSpace(v))
	}
	setInt("PASSWORD_ITERATIONS", &c.PasswordIterations)
	// Logging env overrides
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)

	if len(errs) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
