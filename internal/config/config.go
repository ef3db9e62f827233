package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Storage backend selectors.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL string `yaml:"databaseURL"`

	AuthSecret string `yaml:"authSecret"`

	StorageBackend   string `yaml:"storageBackend"`
	LocalStoragePath string `yaml:"localStoragePath"`
	MinioEndpoint    string `yaml:"minioEndpoint"`
	MinioAccessKey   string `yaml:"minioAccessKey"`
	MinioSecretKey   string `yaml:"minioSecretKey"`
	MinioBucket      string `yaml:"minioBucket"`
	MinioUseSSL      bool   `yaml:"minioUseSSL"`

	GroqBaseURL string `yaml:"groqBaseURL"`
	GroqAPIKey  string `yaml:"groqAPIKey"`
	GroqModel   string `yaml:"groqModel"`

	ElevenLabsBaseURL string `yaml:"elevenLabsBaseURL"`
	ElevenLabsAPIKey  string `yaml:"elevenLabsAPIKey"`
	VoiceID           string `yaml:"voiceID"`

	DefaultQuotaMB        int64 `yaml:"defaultQuotaMB"`
	AdapterTimeoutSeconds int   `yaml:"adapterTimeoutSeconds"`
	PresignExpiryMinutes  int   `yaml:"presignExpiryMinutes"`

	RedisAddr          string `yaml:"redisAddr"`
	RedisPassword      string `yaml:"redisPassword"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute"`
	ReportQueueStream  string `yaml:"reportQueueStream"`

	TrustForwardedHeaders bool `yaml:"trustForwardedHeaders"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides for secrets and deployment parameters.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("RISKINTEL_AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("RISKINTEL_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		cfg.ElevenLabsAPIKey = v
	}
	if v := os.Getenv("VOICE_ID"); v != "" {
		cfg.VoiceID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("RISKINTEL_DEFAULT_QUOTA_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DefaultQuotaMB = n
		}
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = BackendLocal
	}
	if cfg.LocalStoragePath == "" {
		cfg.LocalStoragePath = "media"
	}
	if cfg.GroqBaseURL == "" {
		cfg.GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.GroqModel == "" {
		cfg.GroqModel = "llama-3.3-70b-versatile"
	}
	if cfg.ElevenLabsBaseURL == "" {
		cfg.ElevenLabsBaseURL = "https://api.elevenlabs.io"
	}
	if cfg.DefaultQuotaMB <= 0 {
		cfg.DefaultQuotaMB = 100
	}
	if cfg.AdapterTimeoutSeconds <= 0 {
		cfg.AdapterTimeoutSeconds = 120
	}
	if cfg.PresignExpiryMinutes <= 0 {
		cfg.PresignExpiryMinutes = 60
	}
	if cfg.ReportQueueStream == "" {
		cfg.ReportQueueStream = "riskintel:reports"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.AuthSecret == "" {
		return errors.New("config: authSecret is required (set in config.yaml or RISKINTEL_AUTH_SECRET)")
	}
	switch cfg.StorageBackend {
	case BackendLocal:
	case BackendS3:
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
			return errors.New("config: s3 backend requires minioEndpoint, minioAccessKey, minioSecretKey and minioBucket")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q (want local or s3)", cfg.StorageBackend)
	}
	if cfg.GroqAPIKey == "" {
		return errors.New("config: groqAPIKey is required (set in config.yaml or GROQ_API_KEY)")
	}
	if cfg.ElevenLabsAPIKey == "" {
		return errors.New("config: elevenLabsAPIKey is required (set in config.yaml or ELEVENLABS_API_KEY)")
	}
	if cfg.VoiceID == "" {
		return errors.New("config: voiceID is required (set in config.yaml or VOICE_ID)")
	}
	return nil
}
