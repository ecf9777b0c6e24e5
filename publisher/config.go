package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"auto_x_post_publisher/oauth"
)

// Config holds the app credentials and everything needed to run a posting cycle.
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri,omitempty"`

	// Endpoint overrides; empty means the public X endpoints.
	TokenURL     string `json:"token_url,omitempty"`
	AuthorizeURL string `json:"authorize_url,omitempty"`
	PostURL      string `json:"post_url,omitempty"`

	// Tokens seeds the in-memory token store at startup.
	Tokens oauth.TokenBundle `json:"tokens"`

	LLM        *LLMConfig `json:"llm,omitempty"`
	ServerAddr string     `json:"server_addr,omitempty"`

	// RunSecret, when set, must be sent as X-Run-Secret to trigger a manual run.
	RunSecret string `json:"run_secret,omitempty"`

	MemoryPath string `json:"memory_path,omitempty"`
	TopicsPath string `json:"topics_path,omitempty"`

	// RedisURL switches the recent-post memory from the log file to a Redis list.
	RedisURL string `json:"redis_url,omitempty"`
}

// LLMConfig 生成模块的模型配置。
type LLMConfig struct {
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Persona overrides who the posts are written as.
	Persona *PersonaConfig `json:"persona,omitempty"`
}

type PersonaConfig struct {
	Name  string   `json:"name"`
	About []string `json:"about"`
}

// DefaultConfig returns the values used when neither file nor env set them.
func DefaultConfig() Config {
	return Config{
		LLM:        &LLMConfig{Provider: "openai"},
		MemoryPath: "recent_posts.log",
		TopicsPath: "hot_topics.txt",
	}
}

// LoadConfig reads JSON config from disk, then applies environment overrides.
// A missing file is fine as long as the environment supplies the credentials.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}
	if cfg.LLM == nil {
		cfg.LLM = &LLMConfig{Provider: "openai"}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, errors.New("config must include client_id and client_secret (or X_CLIENT_ID / X_CLIENT_SECRET)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setFromEnv(&cfg.ClientID, "X_CLIENT_ID")
	setFromEnv(&cfg.ClientSecret, "X_CLIENT_SECRET")
	setFromEnv(&cfg.RedirectURI, "X_REDIRECT_URI")
	setFromEnv(&cfg.Tokens.AccessToken, "X_ACCESS_TOKEN")
	setFromEnv(&cfg.Tokens.RefreshToken, "X_REFRESH_TOKEN")
	if v := os.Getenv("X_ACCESS_TOKEN_EXPIRES_AT"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("X_ACCESS_TOKEN_EXPIRES_AT must be epoch milliseconds: %w", err)
		}
		cfg.Tokens.ExpiresAt = ms
	}
	setFromEnv(&cfg.LLM.BaseURL, "HF_BASE_URL")
	setFromEnv(&cfg.LLM.Model, "HF_MODEL")
	setFromEnv(&cfg.LLM.APIKey, "HUGGINGFACE_API_TOKEN")
	setFromEnv(&cfg.LLM.SystemPrompt, "AI_SYSTEM_PROMPT")
	setFromEnv(&cfg.RedisURL, "REDIS_URL")
	setFromEnv(&cfg.RunSecret, "RUN_SECRET")
	if port := os.Getenv("PORT"); port != "" && cfg.ServerAddr == "" {
		cfg.ServerAddr = ":" + port
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
