package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yoockh/voicedit/internal/ratelimit"
)

type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // debug, release, test
	TrustedProxies  []string      `yaml:"trusted_proxies"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

type STTConfig struct {
	Provider   string `yaml:"provider"` // openai, google, static
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
	Encoding   string `yaml:"encoding"`
	SampleRate int    `yaml:"sample_rate"`
	StaticText string `yaml:"static_text"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, vertex, echo
	Model    string `yaml:"model"`    // empty selects the provider default
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // local, gcs
	Dir       string `yaml:"dir"`
	GCSBucket string `yaml:"gcs_bucket"`
	GCSPrefix string `yaml:"gcs_prefix"`
}

type RateLimitConfig struct {
	Enabled       bool             `yaml:"enabled"`
	Policy        ratelimit.Policy `yaml:"policy"`
	SweepInterval time.Duration    `yaml:"sweep_interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	STT       STTConfig       `yaml:"stt"`
	LLM       LLMConfig       `yaml:"llm"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Google    GoogleConfig    `yaml:"google"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:            "0.0.0.0",
			Port:            8000,
			Mode:            "release",
			MaxUploadBytes:  25 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		STT: STTConfig{
			Provider:   "openai",
			Model:      "whisper-1",
			Language:   "en",
			Encoding:   "MP3",
			SampleRate: 16000,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Location: "us-central1",
		},
		Storage: StorageConfig{
			Backend:   "local",
			Dir:       os.TempDir(),
			GCSPrefix: "voicedit/",
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Policy:        ratelimit.DefaultPolicy(),
			SweepInterval: 10 * time.Minute,
		},
	}
}

// Load builds the config from defaults, the optional YAML file at path and
// then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString(&cfg.Server.Bind, "VOICEDIT_SERVER_BIND")
	overrideInt(&cfg.Server.Port, "PORT")
	overrideInt(&cfg.Server.Port, "VOICEDIT_SERVER_PORT")
	overrideString(&cfg.Server.Mode, "VOICEDIT_SERVER_MODE")
	overrideStringSlice(&cfg.Server.TrustedProxies, "VOICEDIT_SERVER_TRUSTED_PROXIES")
	overrideInt64(&cfg.Server.MaxUploadBytes, "VOICEDIT_SERVER_MAX_UPLOAD_BYTES")
	overrideDuration(&cfg.Server.ShutdownTimeout, "VOICEDIT_SERVER_SHUTDOWN_TIMEOUT")

	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Logging.Level, "VOICEDIT_LOG_LEVEL")
	overrideString(&cfg.Logging.Format, "VOICEDIT_LOG_FORMAT")

	overrideString(&cfg.STT.Provider, "VOICEDIT_STT_PROVIDER")
	overrideString(&cfg.STT.Model, "VOICEDIT_STT_MODEL")
	overrideString(&cfg.STT.Language, "VOICEDIT_STT_LANGUAGE")
	overrideString(&cfg.STT.Encoding, "VOICEDIT_STT_ENCODING")
	overrideInt(&cfg.STT.SampleRate, "VOICEDIT_STT_SAMPLE_RATE")
	overrideString(&cfg.STT.StaticText, "VOICEDIT_STT_STATIC_TEXT")

	overrideString(&cfg.LLM.Provider, "VOICEDIT_LLM_PROVIDER")
	overrideString(&cfg.LLM.Model, "VOICEDIT_LLM_MODEL")
	overrideString(&cfg.LLM.Project, "VOICEDIT_LLM_PROJECT")
	overrideString(&cfg.LLM.Location, "VOICEDIT_LLM_LOCATION")

	overrideString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.OpenAI.BaseURL, "VOICEDIT_OPENAI_BASE_URL")
	overrideString(&cfg.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	overrideString(&cfg.Storage.Backend, "VOICEDIT_STORAGE_BACKEND")
	overrideString(&cfg.Storage.Dir, "VOICEDIT_STORAGE_DIR")
	overrideString(&cfg.Storage.GCSBucket, "VOICEDIT_STORAGE_GCS_BUCKET")
	overrideString(&cfg.Storage.GCSPrefix, "VOICEDIT_STORAGE_GCS_PREFIX")

	overrideBool(&cfg.RateLimit.Enabled, "VOICEDIT_RATE_LIMIT_ENABLED")
	overrideDuration(&cfg.RateLimit.SweepInterval, "VOICEDIT_RATE_LIMIT_SWEEP_INTERVAL")
	if err := overrideWindows(&cfg.RateLimit.Policy.Global, "VOICEDIT_RATE_LIMIT_GLOBAL"); err != nil {
		return err
	}
	return overrideWindows(&cfg.RateLimit.Policy.PerRoute, "VOICEDIT_RATE_LIMIT_PER_ROUTE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideInt64(target *int64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideDuration(target *time.Duration, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*target = out
}

// overrideWindows returns an error on a malformed list instead of ignoring it.
func overrideWindows(target *[]ratelimit.Window, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok {
		return nil
	}
	windows, err := ratelimit.ParseWindows(value)
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	*target = windows
	return nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q is not one of debug, release, test", cfg.Server.Mode)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be > 0")
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not one of json, text", cfg.Logging.Format)
	}

	switch cfg.STT.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return errors.New("stt.provider openai requires OPENAI_API_KEY")
		}
	case "google", "static":
	default:
		return fmt.Errorf("stt.provider %q is not one of openai, google, static", cfg.STT.Provider)
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return errors.New("llm.provider openai requires OPENAI_API_KEY")
		}
	case "vertex":
		if cfg.LLM.Project == "" {
			return errors.New("llm.provider vertex requires llm.project")
		}
	case "echo":
	default:
		return fmt.Errorf("llm.provider %q is not one of openai, vertex, echo", cfg.LLM.Provider)
	}

	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.Dir == "" {
			return errors.New("storage.dir is required for the local backend")
		}
	case "gcs":
		if cfg.Storage.GCSBucket == "" {
			return errors.New("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of local, gcs", cfg.Storage.Backend)
	}

	if cfg.RateLimit.Enabled {
		if err := cfg.RateLimit.Policy.Validate(); err != nil {
			return err
		}
	}
	return nil
}
