package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Upload    UploadConfig
	OCR       OCRConfig
	Analysis  AnalysisConfig
	Export    ExportConfig
	Store     StoreConfig
	DB        DBConfig
	Storage   StorageConfig
	S3        S3Config
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Retention RetentionConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// UploadConfig holds format gate limits.
type UploadConfig struct {
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxPDFPages       int      `mapstructure:"max_pdf_pages"`
	MaxImageDimension int      `mapstructure:"max_image_dimension"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// OCRConfig holds OCR engine and rasterizer settings.
type OCRConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	TesseractPath  string `mapstructure:"tesseract_path"`
	PdftoppmPath   string `mapstructure:"pdftoppm_path"`
	Language       string `mapstructure:"language"`
	PSM            int    `mapstructure:"psm"`
	FallbackPSM    int    `mapstructure:"fallback_psm"`
	DPI            int    `mapstructure:"dpi"`
	MinNativeChars int    `mapstructure:"min_native_chars"`
	Workers        int    `mapstructure:"workers"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	DefaultModel string  `mapstructure:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float32 `mapstructure:"temperature"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
	Referer      string  `mapstructure:"referer"`
	Title        string  `mapstructure:"title"`
}

// AnalysisConfig holds analysis client settings with multi-provider support.
type AnalysisConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	MaxInputChars       int     `mapstructure:"max_input_chars"`
	MaxClauses          int     `mapstructure:"max_clauses"`
	MaxClauseChars      int     `mapstructure:"max_clause_chars"`
	HighRiskThreshold   float64 `mapstructure:"high_risk_threshold"`
	MediumRiskThreshold float64 `mapstructure:"medium_risk_threshold"`
	MaxConcurrent       int     `mapstructure:"max_concurrent"`
	FailureThreshold    int     `mapstructure:"failure_threshold"`
	RecoverySecs        int     `mapstructure:"recovery_secs"`
}

// Providers returns the configured providers in failover order.
func (a *AnalysisConfig) Providers() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{&a.Primary, &a.Secondary, &a.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExportConfig holds export worker settings.
type ExportConfig struct {
	Workers       int           `mapstructure:"workers"`
	QueueSize     int           `mapstructure:"queue_size"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

// StoreConfig selects the result store backend.
type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig selects the blob storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	AnalyzePerMinute int `mapstructure:"analyze_per_minute"`
	Burst            int `mapstructure:"burst"`
}

// RetentionConfig holds history retention settings. A zero TTL disables cleanup.
type RetentionConfig struct {
	AnalysisTTL   time.Duration `mapstructure:"analysis_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from environment variables with the LEGALYZER_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEGALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.allowed_extensions", "pdf,png,jpg,jpeg,tiff,bmp")
	v.SetDefault("upload.max_pdf_pages", 100)
	v.SetDefault("upload.max_image_dimension", 5000)

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.fallback_psm", 3)
	v.SetDefault("ocr.dpi", 144)
	v.SetDefault("ocr.min_native_chars", 50)
	v.SetDefault("ocr.workers", 2)
	v.SetDefault("ocr.timeout_secs", 60)

	// Analysis defaults
	v.SetDefault("analysis.primary.provider", "openai")
	v.SetDefault("analysis.primary.api_key", "")
	v.SetDefault("analysis.primary.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("analysis.primary.default_model", "openai/gpt-4o-mini")
	v.SetDefault("analysis.primary.max_tokens", 4000)
	v.SetDefault("analysis.primary.temperature", 0.1)
	v.SetDefault("analysis.primary.timeout_secs", 30)
	v.SetDefault("analysis.primary.referer", "http://localhost:3000")
	v.SetDefault("analysis.primary.title", "Legal Document Analyzer")
	for _, tier := range []string{"secondary", "tertiary"} {
		v.SetDefault("analysis."+tier+".provider", "")
		v.SetDefault("analysis."+tier+".api_key", "")
		v.SetDefault("analysis."+tier+".base_url", "")
		v.SetDefault("analysis."+tier+".default_model", "")
		v.SetDefault("analysis."+tier+".max_tokens", 4000)
		v.SetDefault("analysis."+tier+".temperature", 0.1)
		v.SetDefault("analysis."+tier+".timeout_secs", 30)
		v.SetDefault("analysis."+tier+".referer", "")
		v.SetDefault("analysis."+tier+".title", "")
	}
	v.SetDefault("analysis.max_input_chars", 12000)
	v.SetDefault("analysis.max_clauses", 10)
	v.SetDefault("analysis.max_clause_chars", 500)
	v.SetDefault("analysis.high_risk_threshold", 7.0)
	v.SetDefault("analysis.medium_risk_threshold", 4.0)
	v.SetDefault("analysis.max_concurrent", 5)
	v.SetDefault("analysis.failure_threshold", 3)
	v.SetDefault("analysis.recovery_secs", 120)

	// Export defaults
	v.SetDefault("export.workers", 2)
	v.SetDefault("export.queue_size", 64)
	v.SetDefault("export.render_timeout", "120s")

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.auto_migrate", true)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "legalyzer")
	v.SetDefault("db.password", "legalyzer_secret")
	v.SetDefault("db.name", "legalyzer_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Storage defaults
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "legalyzer-documents")
	v.SetDefault("s3.endpoint", "")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Rate limit defaults
	v.SetDefault("rate_limit.analyze_per_minute", 10)
	v.SetDefault("rate_limit.burst", 10)

	// Retention defaults
	v.SetDefault("retention.analysis_ttl", "24h")
	v.SetDefault("retention.sweep_interval", "1h")

	v.SetDefault("metrics.enabled", true)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "LEGALYZER_SERVER_PORT",
		"server.read_timeout":            "LEGALYZER_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "LEGALYZER_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":        "LEGALYZER_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":             "LEGALYZER_SERVER_ENVIRONMENT",
		"log.level":                      "LEGALYZER_LOG_LEVEL",
		"log.format":                     "LEGALYZER_LOG_FORMAT",
		"log.output":                     "LEGALYZER_LOG_OUTPUT",
		"upload.max_file_size_mb":        "LEGALYZER_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.allowed_extensions":      "LEGALYZER_UPLOAD_ALLOWED_EXTENSIONS",
		"upload.max_pdf_pages":           "LEGALYZER_UPLOAD_MAX_PDF_PAGES",
		"upload.max_image_dimension":     "LEGALYZER_UPLOAD_MAX_IMAGE_DIMENSION",
		"ocr.enabled":                    "LEGALYZER_OCR_ENABLED",
		"ocr.tesseract_path":             "LEGALYZER_OCR_TESSERACT_PATH",
		"ocr.pdftoppm_path":              "LEGALYZER_OCR_PDFTOPPM_PATH",
		"ocr.language":                   "LEGALYZER_OCR_LANGUAGE",
		"ocr.psm":                        "LEGALYZER_OCR_PSM",
		"ocr.fallback_psm":               "LEGALYZER_OCR_FALLBACK_PSM",
		"ocr.dpi":                        "LEGALYZER_OCR_DPI",
		"ocr.min_native_chars":           "LEGALYZER_OCR_MIN_NATIVE_CHARS",
		"ocr.workers":                    "LEGALYZER_OCR_WORKERS",
		"ocr.timeout_secs":               "LEGALYZER_OCR_TIMEOUT_SECS",
		"analysis.max_input_chars":       "LEGALYZER_ANALYSIS_MAX_INPUT_CHARS",
		"analysis.max_clauses":           "LEGALYZER_ANALYSIS_MAX_CLAUSES",
		"analysis.max_clause_chars":      "LEGALYZER_ANALYSIS_MAX_CLAUSE_CHARS",
		"analysis.high_risk_threshold":   "LEGALYZER_ANALYSIS_HIGH_RISK_THRESHOLD",
		"analysis.medium_risk_threshold": "LEGALYZER_ANALYSIS_MEDIUM_RISK_THRESHOLD",
		"analysis.max_concurrent":        "LEGALYZER_ANALYSIS_MAX_CONCURRENT",
		"analysis.failure_threshold":     "LEGALYZER_ANALYSIS_FAILURE_THRESHOLD",
		"analysis.recovery_secs":         "LEGALYZER_ANALYSIS_RECOVERY_SECS",
		"export.workers":                 "LEGALYZER_EXPORT_WORKERS",
		"export.queue_size":              "LEGALYZER_EXPORT_QUEUE_SIZE",
		"export.render_timeout":          "LEGALYZER_EXPORT_RENDER_TIMEOUT",
		"store.backend":                  "LEGALYZER_STORE_BACKEND",
		"store.auto_migrate":             "LEGALYZER_STORE_AUTO_MIGRATE",
		"db.host":                        "LEGALYZER_DB_HOST",
		"db.port":                        "LEGALYZER_DB_PORT",
		"db.user":                        "LEGALYZER_DB_USER",
		"db.password":                    "LEGALYZER_DB_PASSWORD",
		"db.name":                        "LEGALYZER_DB_NAME",
		"db.sslmode":                     "LEGALYZER_DB_SSLMODE",
		"db.max_open":                    "LEGALYZER_DB_MAX_OPEN",
		"db.max_idle":                    "LEGALYZER_DB_MAX_IDLE",
		"storage.backend":                "LEGALYZER_STORAGE_BACKEND",
		"s3.region":                      "LEGALYZER_S3_REGION",
		"s3.bucket":                      "LEGALYZER_S3_BUCKET",
		"s3.endpoint":                    "LEGALYZER_S3_ENDPOINT",
		"s3.access_key":                  "LEGALYZER_S3_ACCESS_KEY",
		"s3.secret_key":                  "LEGALYZER_S3_SECRET_KEY",
		"cors.allowed_origins":           "LEGALYZER_CORS_ALLOWED_ORIGINS",
		"rate_limit.analyze_per_minute":  "LEGALYZER_RATE_LIMIT_ANALYZE_PER_MINUTE",
		"rate_limit.burst":               "LEGALYZER_RATE_LIMIT_BURST",
		"retention.analysis_ttl":         "LEGALYZER_RETENTION_ANALYSIS_TTL",
		"retention.sweep_interval":       "LEGALYZER_RETENTION_SWEEP_INTERVAL",
		"metrics.enabled":                "LEGALYZER_METRICS_ENABLED",
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, field := range []string{"provider", "api_key", "base_url", "default_model", "max_tokens", "temperature", "timeout_secs", "referer", "title"} {
			key := "analysis." + tier + "." + field
			envBindings[key] = "LEGALYZER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LEGALYZER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LEGALYZER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB:     v.GetInt64("upload.max_file_size_mb"),
		AllowedExtensions: splitList(v.GetString("upload.allowed_extensions"), true),
		MaxPDFPages:       v.GetInt("upload.max_pdf_pages"),
		MaxImageDimension: v.GetInt("upload.max_image_dimension"),
	}
	cfg.OCR = OCRConfig{
		Enabled:        v.GetBool("ocr.enabled"),
		TesseractPath:  v.GetString("ocr.tesseract_path"),
		PdftoppmPath:   v.GetString("ocr.pdftoppm_path"),
		Language:       v.GetString("ocr.language"),
		PSM:            v.GetInt("ocr.psm"),
		FallbackPSM:    v.GetInt("ocr.fallback_psm"),
		DPI:            v.GetInt("ocr.dpi"),
		MinNativeChars: v.GetInt("ocr.min_native_chars"),
		Workers:        v.GetInt("ocr.workers"),
		TimeoutSecs:    v.GetInt("ocr.timeout_secs"),
	}
	cfg.Analysis = AnalysisConfig{
		Primary:             providerConfig(v, "primary"),
		Secondary:           providerConfig(v, "secondary"),
		Tertiary:            providerConfig(v, "tertiary"),
		MaxInputChars:       v.GetInt("analysis.max_input_chars"),
		MaxClauses:          v.GetInt("analysis.max_clauses"),
		MaxClauseChars:      v.GetInt("analysis.max_clause_chars"),
		HighRiskThreshold:   v.GetFloat64("analysis.high_risk_threshold"),
		MediumRiskThreshold: v.GetFloat64("analysis.medium_risk_threshold"),
		MaxConcurrent:       v.GetInt("analysis.max_concurrent"),
		FailureThreshold:    v.GetInt("analysis.failure_threshold"),
		RecoverySecs:        v.GetInt("analysis.recovery_secs"),
	}
	cfg.Export = ExportConfig{
		Workers:       v.GetInt("export.workers"),
		QueueSize:     v.GetInt("export.queue_size"),
		RenderTimeout: v.GetDuration("export.render_timeout"),
	}
	cfg.Store = StoreConfig{
		Backend:     v.GetString("store.backend"),
		AutoMigrate: v.GetBool("store.auto_migrate"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Storage = StorageConfig{
		Backend: v.GetString("storage.backend"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins"), false),
	}
	cfg.RateLimit = RateLimitConfig{
		AnalyzePerMinute: v.GetInt("rate_limit.analyze_per_minute"),
		Burst:            v.GetInt("rate_limit.burst"),
	}
	cfg.Retention = RetentionConfig{
		AnalysisTTL:   v.GetDuration("retention.analysis_ttl"),
		SweepInterval: v.GetDuration("retention.sweep_interval"),
	}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("metrics.enabled")}

	if len(cfg.Analysis.Providers()) == 0 {
		return nil, fmt.Errorf("config: at least one analysis provider must be configured")
	}
	if cfg.Analysis.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("config: analysis.max_concurrent must be positive, got %d", cfg.Analysis.MaxConcurrent)
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, tier string) ProviderConfig {
	prefix := "analysis." + tier + "."
	return ProviderConfig{
		Provider:     v.GetString(prefix + "provider"),
		APIKey:       v.GetString(prefix + "api_key"),
		BaseURL:      v.GetString(prefix + "base_url"),
		DefaultModel: v.GetString(prefix + "default_model"),
		MaxTokens:    v.GetInt(prefix + "max_tokens"),
		Temperature:  float32(v.GetFloat64(prefix + "temperature")),
		TimeoutSecs:  v.GetInt(prefix + "timeout_secs"),
		Referer:      v.GetString(prefix + "referer"),
		Title:        v.GetString(prefix + "title"),
	}
}

// splitList parses a comma-separated string, optionally lower-casing and
// dropping a leading dot from each element.
func splitList(raw string, normalize bool) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if normalize {
			item = strings.TrimPrefix(strings.ToLower(item), ".")
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
