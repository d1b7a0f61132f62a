package config

import (
	"errors"
	"strings"
	"testing"
)

// fakeBackend is an in-memory ConfigBackend for tests.
type fakeBackend struct {
	strings map[string]string
	ints    map[string]int
}

func (f *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := f.strings[key]
	return v, ok, nil
}

func (f *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := f.ints[key]
	return v, ok, nil
}

func (f *fakeBackend) SetString(key, val string) error {
	if f.strings == nil {
		f.strings = make(map[string]string)
	}
	f.strings[key] = val
	return nil
}

func (f *fakeBackend) SetInt(key string, val int) error {
	if f.ints == nil {
		f.ints = make(map[string]int)
	}
	f.ints[key] = val
	return nil
}

func (f *fakeBackend) Delete(key string) error {
	delete(f.strings, key)
	delete(f.ints, key)
	return nil
}

// fakeKeychain returns canned secrets.
type fakeKeychain struct {
	secrets map[string]string
}

func (f fakeKeychain) Get(service, account string) (string, error) {
	v, ok := f.secrets[service+"/"+account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COACHD_GROQ_API_KEY", "test-key")

	cfg, err := loadWith(&fakeBackend{}, fakeKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4001 {
		t.Errorf("Server.MCPPort = %d, want 4001", cfg.Server.MCPPort)
	}
	if cfg.LLM.Provider != "groq" {
		t.Errorf("LLM.Provider = %q, want groq", cfg.LLM.Provider)
	}
	if cfg.LLM.OllamaBaseURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaBaseURL = %q", cfg.LLM.OllamaBaseURL)
	}
}

func TestLoadBackendOverridesDefaults(t *testing.T) {
	t.Setenv("COACHD_GROQ_API_KEY", "test-key")

	b := &fakeBackend{
		strings: map[string]string{"llm.groq_model": "llama-3.1-8b-instant"},
		ints:    map[string]int{"server.port": 9000},
	}
	cfg, err := loadWith(b, fakeKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.LLM.GroqModel != "llama-3.1-8b-instant" {
		t.Errorf("LLM.GroqModel = %q", cfg.LLM.GroqModel)
	}
}

func TestLoadEnvOverridesBackend(t *testing.T) {
	t.Setenv("COACHD_GROQ_API_KEY", "test-key")
	t.Setenv("COACHD_SERVER_PORT", "5555")

	b := &fakeBackend{ints: map[string]int{"server.port": 9000}}
	cfg, err := loadWith(b, fakeKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 5555 {
		t.Errorf("Server.Port = %d, want env override 5555", cfg.Server.Port)
	}
}

func TestLoadKeychainFallbackForAPIKey(t *testing.T) {
	kc := fakeKeychain{secrets: map[string]string{"coachd/groq_api_key": "kc-key"}}

	cfg, err := loadWith(&fakeBackend{}, kc)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.LLM.GroqAPIKey != "kc-key" {
		t.Errorf("LLM.GroqAPIKey = %q, want keychain value", cfg.LLM.GroqAPIKey)
	}
}

func TestLoadMissingGroqKeyFails(t *testing.T) {
	_, err := loadWith(&fakeBackend{}, fakeKeychain{})
	if err == nil {
		t.Fatal("expected error for missing Groq API key")
	}
	if !strings.Contains(err.Error(), "COACHD_GROQ_API_KEY") {
		t.Errorf("error %q does not name the env var", err)
	}
}

func TestLoadOllamaProviderNeedsNoKey(t *testing.T) {
	b := &fakeBackend{strings: map[string]string{"llm.provider": "ollama"}}

	cfg, err := loadWith(b, fakeKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("LLM.Provider = %q", cfg.LLM.Provider)
	}
}

func TestLoadUnknownProviderFails(t *testing.T) {
	b := &fakeBackend{strings: map[string]string{"llm.provider": "bard"}}

	if _, err := loadWith(b, fakeKeychain{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestShowAllExcludesSecrets(t *testing.T) {
	t.Setenv("COACHD_GROQ_API_KEY", "super-secret")

	cfg, err := loadWith(&fakeBackend{}, fakeKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	for _, info := range ShowAll(cfg) {
		if info.Key == "llm.groq_api_key" || info.Key == "auth.token" {
			t.Errorf("secret key %q exposed by ShowAll", info.Key)
		}
		if info.Value == "super-secret" {
			t.Errorf("secret value exposed under key %q", info.Key)
		}
	}
}

func TestValidKeysExcludesSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "llm.groq_api_key" || k == "auth.token" {
			t.Errorf("secret key %q listed as settable", k)
		}
	}
}
