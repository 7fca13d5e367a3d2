package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigPath    = "config.toml"
	DefaultEnvFile       = ".env"
	DefaultHTTPAddr      = ":8080"
	DefaultJWTExpiresIn  = "24h"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "rasaeel"
	DefaultPGSSLMode     = "disable"
	DefaultOpenAIModel   = "gpt-4o"
	DefaultGraphBaseURL  = "https://graph.instagram.com/v18.0"
	DefaultSpeechTimeout = 30

	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// ErrMissingSecret is returned by Validate when a production secret is absent.
var ErrMissingSecret = errors.New("required secret is not configured")

type Config struct {
	Environment string           `toml:"environment"`
	Log         LogConfig        `toml:"log"`
	Server      ServerConfig     `toml:"server"`
	Auth        AuthConfig       `toml:"auth"`
	Meta        MetaConfig       `toml:"meta"`
	OpenAI      OpenAIConfig     `toml:"openai"`
	Speech      SpeechConfig     `toml:"speech"`
	Postgres    PostgresConfig   `toml:"postgres"`
	Redis       RedisConfig      `toml:"redis"`
	Escalation  EscalationConfig `toml:"escalation"`
	Telemetry   TelemetryConfig  `toml:"telemetry"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type MetaConfig struct {
	AppID              string `toml:"app_id"`
	AppSecret          string `toml:"app_secret"`
	RedirectURI        string `toml:"redirect_uri"`
	WebhookVerifyToken string `toml:"webhook_verify_token"`
	GraphBaseURL       string `toml:"graph_base_url"`
	// TokenEncryptionKey is a hex encoded 32 byte key for stored page tokens.
	TokenEncryptionKey string `toml:"token_encryption_key"`
}

type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SpeechConfig struct {
	Key            string `toml:"key"`
	Region         string `toml:"region"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Enabled reports whether voice transcription can run.
func (c SpeechConfig) Enabled() bool {
	return strings.TrimSpace(c.Key) != "" && (strings.TrimSpace(c.Region) != "" || strings.TrimSpace(c.Endpoint) != "")
}

type PostgresConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	Database    string `toml:"database"`
	SSLMode     string `toml:"sslmode"`
	MinConns    int32  `toml:"min_conns"`
	MaxConns    int32  `toml:"max_conns"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// DSN renders a postgres:// connection string.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type EscalationConfig struct {
	KeywordsFile string `toml:"keywords_file"`
}

type TelemetryConfig struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// IsProduction reports whether the process runs with production guarantees.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentProduction)
}

func defaults() Config {
	return Config{
		Environment: EnvironmentDevelopment,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Meta: MetaConfig{
			GraphBaseURL: DefaultGraphBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model:          DefaultOpenAIModel,
			TimeoutSeconds: 30,
		},
		Speech: SpeechConfig{
			TimeoutSeconds: DefaultSpeechTimeout,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
			MinConns: 2,
			MaxConns: 5,
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 0.1,
		},
	}
}

// Load reads defaults, then the optional TOML file at path, then the process
// environment (after loading a .env file when one exists).
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return cfg, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	applyEnvironmentDefaults(&cfg)
	return cfg, nil
}

func applyEnvironmentDefaults(cfg *Config) {
	if !cfg.IsProduction() {
		return
	}
	cfg.Postgres.SSLMode = "require"
	if cfg.Postgres.MaxConns <= 5 {
		cfg.Postgres.MaxConns = 20
	}
	if cfg.Postgres.MinConns < 2 {
		cfg.Postgres.MinConns = 2
	}
}

// Validate checks that every secret required by the environment is present.
func (c Config) Validate() error {
	if !c.IsProduction() {
		if strings.TrimSpace(c.Environment) != EnvironmentDevelopment {
			return fmt.Errorf("unknown environment %q", c.Environment)
		}
		return nil
	}
	required := []struct {
		name  string
		value string
	}{
		{"META_APP_SECRET", c.Meta.AppSecret},
		{"META_WEBHOOK_VERIFY_TOKEN", c.Meta.WebhookVerifyToken},
		{"OPENAI_API_KEY", c.OpenAI.APIKey},
		{"DATABASE_PASSWORD", c.Postgres.Password},
		{"JWT_SECRET", c.Auth.JWTSecret},
		{"TOKEN_ENCRYPTION_KEY", c.Meta.TokenEncryptionKey},
	}
	var missing []string
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, item.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}
