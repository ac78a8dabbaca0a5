package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Prospector ProspectorConfig `yaml:"prospector"`
	Search     SearchConfig     `yaml:"search"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Export     ExportConfig     `yaml:"export"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule" validate:"required"`
}

type ProspectorConfig struct {
	Niches      []string `yaml:"niches" validate:"dive,required"`
	Language    string   `yaml:"language" validate:"oneof=fr en"`
	MaxAnalyze  int      `yaml:"max_analyze" validate:"min=1,max=100"`
	SubsMin     int64    `yaml:"subs_min" validate:"min=0"`
	SubsMax     int64    `yaml:"subs_max" validate:"gtefield=SubsMin"`
	RecencyDays int      `yaml:"recency_days" validate:"min=1"`
}

type SearchConfig struct {
	Backend         string        `yaml:"backend" validate:"oneof=ytdlp youtube"`
	YtDlpPath       string        `yaml:"ytdlp_path"`
	SearchTimeout   time.Duration `yaml:"search_timeout" validate:"gt=0"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout" validate:"gt=0"`
	SocketTimeout   time.Duration `yaml:"socket_timeout"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type AIConfig struct {
	GeminiAPIKey string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string        `yaml:"model" validate:"required"`
	Temperature  float32       `yaml:"temperature" validate:"min=0,max=2"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	MinInterval  time.Duration `yaml:"min_interval"`
	SecretsFile  string        `yaml:"secrets_file"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough SMTP settings are present to send a digest.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port" validate:"min=1,max=65535"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Prospector: ProspectorConfig{
			Language:    "fr",
			MaxAnalyze:  10,
			SubsMin:     0,
			SubsMax:     500000,
			RecencyDays: 30,
		},
		Search: SearchConfig{
			Backend:         "ytdlp",
			YtDlpPath:       "yt-dlp",
			SearchTimeout:   120 * time.Second,
			MetadataTimeout: 30 * time.Second,
			SocketTimeout:   10 * time.Second,
		},
		YouTube: YouTubeConfig{
			TokenFile: "youtube_token.json",
		},
		AI: AIConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.1,
			Timeout:     60 * time.Second,
			MinInterval: 2 * time.Second,
			SecretsFile: "secrets.yaml",
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		Monitoring: MonitoringConfig{
			HealthPort: 8080,
		},
		Schedule: "0 0 9 * * *", // Daily at 9 AM
	}
}

// Load reads the file named by CONFIG_FILE, or config.yaml when unset.
func Load() (*Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	return LoadFrom(configFile)
}

// LoadFrom reads .env, then the YAML file over the defaults, then fills empty
// secrets from the environment. A missing file leaves the defaults in place.
func LoadFrom(configFile string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No file is fine, defaults and environment apply
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

// Validate checks field ranges and cross-field requirements.
// The Gemini key is not required here; it is resolved once per run.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Search.Backend == "youtube" && c.YouTube.APIKey == "" && c.YouTube.ClientID == "" {
		return fmt.Errorf("youtube search backend requires an API key or OAuth client (set YOUTUBE_API_KEY or youtube.client_id)")
	}
	if c.YouTube.ClientID != "" && c.YouTube.ClientSecret == "" && c.YouTube.APIKey == "" {
		return fmt.Errorf("YouTube client secret is required (set GOOGLE_CLIENT_SECRET or youtube.client_secret)")
	}
	if c.Email.Enabled() && c.Email.FromEmail == "" {
		return fmt.Errorf("email.from_email is required when email delivery is configured")
	}
	return nil
}
