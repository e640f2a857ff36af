// Package config loads the application configuration from environment
// variables. Malformed values that would change interpreter behavior
// (retry count, temperature, timeout) are rejected here, outside the
// runtime path, so the pipeline never sees them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/voicechess/internal/domain"
)

type AppConfig struct {
	// remote assistant tier
	AssistantEndpoint    string
	AssistantAPIKey      string
	AssistantModel       string
	AssistantTemperature float64
	AssistantRetryCount  int
	AssistantTimeout     time.Duration
	AssistantBackoff     time.Duration
	RemoteEnabled        bool

	// offline intent tier
	UseLocalIntent    bool
	IntentCatalogPath string

	// collaborators
	RedisURL      string
	SttWSURL      string
	MessagesDir   string
	SessionTTLSec int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		AssistantModel:       "gpt-4o-mini",
		AssistantTemperature: 0.2,
		AssistantRetryCount:  3,
		AssistantTimeout:     5 * time.Second,
		AssistantBackoff:     100 * time.Millisecond,
		RemoteEnabled:        true,
		UseLocalIntent:       true,
		SessionTTLSec:        3600,
	}

	cfg.AssistantEndpoint = strings.TrimSpace(os.Getenv("ASSISTANT_ENDPOINT"))
	cfg.AssistantAPIKey = strings.TrimSpace(os.Getenv("ASSISTANT_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_MODEL")); v != "" {
		cfg.AssistantModel = v
	}

	if v := strings.TrimSpace(os.Getenv("ASSISTANT_TEMPERATURE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("ASSISTANT_TEMPERATURE must be in [0,1], got %q", v)
		}
		cfg.AssistantTemperature = f
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_RETRY_COUNT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10 {
			return nil, fmt.Errorf("ASSISTANT_RETRY_COUNT must be in [1,10], got %q", v)
		}
		cfg.AssistantRetryCount = n
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_TIMEOUT")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 10 {
			return nil, fmt.Errorf("ASSISTANT_TIMEOUT must be seconds in (0,10], got %q", v)
		}
		cfg.AssistantTimeout = time.Duration(f * float64(time.Second))
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_BACKOFF_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AssistantBackoff = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("REMOTE_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RemoteEnabled = b
		}
	}

	if v := strings.TrimSpace(os.Getenv("USE_LOCAL_INTENT")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseLocalIntent = b
		}
	}
	cfg.IntentCatalogPath = strings.TrimSpace(os.Getenv("INTENT_CATALOG_PATH"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.SttWSURL = strings.TrimSpace(os.Getenv("STT_WS_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if cfg.RemoteEnabled && cfg.AssistantEndpoint == "" {
		return nil, fmt.Errorf("ASSISTANT_ENDPOINT is required when the remote tier is enabled")
	}

	return cfg, nil
}

// AssistantConfig snapshots the remote-tier settings in the form the
// interpreter consumes. A fresh snapshot is taken per dispatched utterance.
func (c *AppConfig) AssistantConfig() domain.AssistantConfig {
	return domain.AssistantConfig{
		Endpoint:    c.AssistantEndpoint,
		APIKey:      c.AssistantAPIKey,
		Model:       c.AssistantModel,
		Temperature: c.AssistantTemperature,
		RetryCount:  c.AssistantRetryCount,
		Timeout:     c.AssistantTimeout,
		BaseBackoff: c.AssistantBackoff,
	}
}
