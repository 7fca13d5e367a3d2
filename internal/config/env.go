package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envString struct {
	key    string
	target *string
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	strs := []envString{
		{"ENVIRONMENT", &cfg.Environment},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"SERVER_ADDR", &cfg.Server.Addr},
		{"JWT_SECRET", &cfg.Auth.JWTSecret},
		{"JWT_EXPIRES_IN", &cfg.Auth.JWTExpiresIn},
		{"META_APP_ID", &cfg.Meta.AppID},
		{"META_APP_SECRET", &cfg.Meta.AppSecret},
		{"META_REDIRECT_URI", &cfg.Meta.RedirectURI},
		{"META_WEBHOOK_VERIFY_TOKEN", &cfg.Meta.WebhookVerifyToken},
		{"GRAPH_API_BASE_URL", &cfg.Meta.GraphBaseURL},
		{"TOKEN_ENCRYPTION_KEY", &cfg.Meta.TokenEncryptionKey},
		{"OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"OPENAI_MODEL", &cfg.OpenAI.Model},
		{"OPENAI_BASE_URL", &cfg.OpenAI.BaseURL},
		{"AZURE_SPEECH_KEY", &cfg.Speech.Key},
		{"AZURE_SPEECH_REGION", &cfg.Speech.Region},
		{"AZURE_SPEECH_ENDPOINT", &cfg.Speech.Endpoint},
		{"DATABASE_HOST", &cfg.Postgres.Host},
		{"DATABASE_USER", &cfg.Postgres.User},
		{"DATABASE_PASSWORD", &cfg.Postgres.Password},
		{"DATABASE_NAME", &cfg.Postgres.Database},
		{"DATABASE_SSLMODE", &cfg.Postgres.SSLMode},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"ESCALATION_KEYWORDS_FILE", &cfg.Escalation.KeywordsFile},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.Endpoint},
	}
	for _, item := range strs {
		if v, ok := lookup(item.key); ok && strings.TrimSpace(v) != "" {
			*item.target = strings.TrimSpace(v)
		}
	}
	cfg.Environment = strings.ToLower(cfg.Environment)

	if v, ok := lookupTrimmed(lookup, "DATABASE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DATABASE_PORT: %w", err)
		}
		cfg.Postgres.Port = port
	}
	if v, ok := lookupTrimmed(lookup, "DATABASE_MIN_CONNS"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DATABASE_MIN_CONNS: %w", err)
		}
		cfg.Postgres.MinConns = int32(n)
	}
	if v, ok := lookupTrimmed(lookup, "DATABASE_MAX_CONNS"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DATABASE_MAX_CONNS: %w", err)
		}
		cfg.Postgres.MaxConns = int32(n)
	}
	if v, ok := lookupTrimmed(lookup, "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v, ok := lookupTrimmed(lookup, "DATABASE_AUTO_MIGRATE"); ok {
		cfg.Postgres.AutoMigrate = parseBool(v)
	}
	if v, ok := lookupTrimmed(lookup, "OTEL_ENABLED"); ok {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v, ok := lookupTrimmed(lookup, "OTEL_EXPORTER_OTLP_INSECURE"); ok {
		cfg.Telemetry.Insecure = parseBool(v)
	}
	if v, ok := lookupTrimmed(lookup, "OTEL_SAMPLER_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OTEL_SAMPLER_RATIO: %w", err)
		}
		cfg.Telemetry.SampleRatio = min(max(f, 0), 1)
	}
	return nil
}

func lookupTrimmed(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
