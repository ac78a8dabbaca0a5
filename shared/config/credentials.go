package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GeminiKeyName is the variable and secrets-store key holding the scoring credential.
const GeminiKeyName = "GEMINI_API_KEY"

// ResolveAPIKey returns the scoring credential from, in order: the explicit argument,
// the environment (or the value already loaded into cfg), and the secrets store file.
// The boolean is false when no source yields a non-empty key.
func ResolveAPIKey(explicit string, cfg *Config) (string, bool) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, true
	}
	if key := strings.TrimSpace(os.Getenv(GeminiKeyName)); key != "" {
		return key, true
	}
	if cfg == nil {
		return "", false
	}
	if key := strings.TrimSpace(cfg.AI.GeminiAPIKey); key != "" {
		return key, true
	}
	if key := secretFromFile(cfg.AI.SecretsFile, GeminiKeyName); key != "" {
		return key, true
	}
	return "", false
}

// secretFromFile reads a flat YAML map of secrets. Missing or unreadable files yield "".
func secretFromFile(path, name string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var secrets map[string]string
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return ""
	}
	return strings.TrimSpace(secrets[name])
}
