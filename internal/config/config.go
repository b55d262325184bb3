// Package config handles application configuration via environment
// variables, a .env file, and an optional YAML file of defaults.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends selectable with STORAGE.
const (
	StoragePostgres     = "postgres"
	StorageSQLite       = "sqlite"
	StorageGormPostgres = "gorm-postgres"
	StorageFile         = "file"
	StorageS3           = "s3"
	StorageMemory       = "memory"
)

// Config holds all configurable values for the app.
type Config struct {
	Env  string
	Addr string

	Storage    string
	DBURL      string
	SQLitePath string
	DataDir    string
	S3Bucket   string
	S3Prefix   string
	AWSRegion  string

	AIProvider    string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiKey     string
	GeminiBaseURL string
	GeminiModel   string
	AITimeout     time.Duration
	AIMaxAttempts int
	TargetMode    string

	DefaultTarget int
	Location      *time.Location

	PasswordHash string
	JWTSecret    string
}

// AuthEnabled reports whether a login password is configured.
func (c *Config) AuthEnabled() bool { return c.PasswordHash != "" }

// Load reads .env (when present), the YAML file named by CONFIG_FILE (when
// set), and the environment, in increasing precedence. Invalid values
// panic: the process cannot start on a broken configuration.
func Load() *Config {
	_ = godotenv.Load()

	defaults := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		defaults, err = readFile(path)
		if err != nil {
			log.Panicf("Invalid CONFIG_FILE: %v", err)
		}
	}
	get := func(key, fallback string) string {
		if v, ok := defaults[key]; ok && v != "" {
			fallback = v
		}
		return getEnv(key, fallback)
	}

	aiTimeout, err := time.ParseDuration(get("AI_TIMEOUT", "15s"))
	if err != nil || aiTimeout <= 0 {
		log.Panicf("Invalid AI_TIMEOUT: %q", get("AI_TIMEOUT", ""))
	}
	aiAttempts, err := strconv.Atoi(get("AI_MAX_ATTEMPTS", "2"))
	if err != nil || aiAttempts < 1 {
		log.Panicf("Invalid AI_MAX_ATTEMPTS: %q", get("AI_MAX_ATTEMPTS", ""))
	}
	defaultTarget, err := strconv.Atoi(get("DEFAULT_TARGET", "2000"))
	if err != nil || defaultTarget < 0 {
		log.Panicf("Invalid DEFAULT_TARGET: %q", get("DEFAULT_TARGET", ""))
	}
	loc, err := time.LoadLocation(get("TIMEZONE", "UTC"))
	if err != nil {
		log.Panicf("Invalid TIMEZONE: %v", err)
	}

	cfg := &Config{
		Env:  get("ENV", "development"),
		Addr: get("ADDR", ":8080"),

		Storage:    get("STORAGE", StorageSQLite),
		DBURL:      get("DB_URL", ""),
		SQLitePath: get("SQLITE_PATH", "calorie-dashboard.db"),
		DataDir:    get("DATA_DIR", "data"),
		S3Bucket:   get("S3_BUCKET", ""),
		S3Prefix:   get("S3_PREFIX", "calorie-dashboard"),
		AWSRegion:  get("AWS_REGION", ""),

		AIProvider:    get("AI_PROVIDER", "openai"),
		OpenAIKey:     get("OPENAI_API_KEY", ""),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		OpenAIModel:   get("OPENAI_MODEL", ""),
		GeminiKey:     get("GEMINI_API_KEY", ""),
		GeminiBaseURL: get("GEMINI_BASE_URL", ""),
		GeminiModel:   get("GEMINI_MODEL", ""),
		AITimeout:     aiTimeout,
		AIMaxAttempts: aiAttempts,
		TargetMode:    get("TARGET_MODE", "ai"),

		DefaultTarget: defaultTarget,
		Location:      loc,

		PasswordHash: get("PASSWORD_HASH", ""),
		JWTSecret:    get("JWT_SECRET", ""),
	}
	if err := cfg.validate(); err != nil {
		log.Panicf("Invalid configuration: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres, StorageGormPostgres:
		if c.DBURL == "" {
			return fmt.Errorf("STORAGE=%s requires DB_URL", c.Storage)
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("STORAGE=s3 requires S3_BUCKET")
		}
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.AIProvider != "openai" && c.AIProvider != "gemini" {
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	if c.TargetMode != "ai" && c.TargetMode != "formula" {
		return fmt.Errorf("unknown TARGET_MODE %q", c.TargetMode)
	}
	if c.PasswordHash != "" && c.JWTSecret == "" {
		return fmt.Errorf("PASSWORD_HASH requires JWT_SECRET")
	}
	return nil
}

// readFile loads a flat YAML mapping. Keys may be written as the env var
// name or in lower case (storage: sqlite).
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
