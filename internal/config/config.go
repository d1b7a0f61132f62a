package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Storage StorageConfig
	Auth    AuthConfig
	Log     LogConfig
}

type LogConfig struct {
	Level string
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

// LLMConfig selects and configures the generation backend. Provider is
// "groq" or "ollama".
type LLMConfig struct {
	Provider      string
	GroqAPIKey    string
	GroqModel     string
	OllamaBaseURL string
	OllamaModel   string
}

type StorageConfig struct {
	DataDir string
}

// AuthConfig holds the API bearer token. An empty token disables auth,
// which is only sensible for local use.
type AuthConfig struct {
	Token string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		LLM: LLMConfig{
			Provider:      "groq",
			GroqModel:     "llama-3.3-70b-versatile",
			OllamaBaseURL: "http://localhost:11434",
			OllamaModel:   "llama3.1",
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.coachd.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/coachd/config.json
// and secrets must be provided via environment variables.
//
// Environment variables (COACHD_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for secrets still empty.
	if cfg.LLM.GroqAPIKey == "" {
		if key, err := kc.Get("coachd", "groq_api_key"); err == nil && key != "" {
			cfg.LLM.GroqAPIKey = key
		}
	}
	if cfg.Auth.Token == "" {
		if tok, err := kc.Get("coachd", "api_token"); err == nil && tok != "" {
			cfg.Auth.Token = tok
		}
	}

	switch cfg.LLM.Provider {
	case "groq":
		if cfg.LLM.GroqAPIKey == "" {
			msg := "missing required config: Groq API key. " +
				"Set it via environment variable COACHD_GROQ_API_KEY" +
				apiKeyHint()
			return Config{}, fmt.Errorf("%s", msg)
		}
	case "ollama":
		// Local provider needs no key.
	default:
		return Config{}, fmt.Errorf("unknown llm provider %q (expected \"groq\" or \"ollama\")", cfg.LLM.Provider)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
