package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		GenProvider:   "openai",
		OpenAIKey:     "k",
		HistorySource: "db",
		DatabaseURL:   "postgres://localhost/site",
		LastK:         40,
		HalfLife:      10,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidate_MissingProviderKey(t *testing.T) {
	c := validConfig()
	c.OpenAIKey = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("err = %v, want OPENAI_API_KEY requirement", err)
	}

	c = validConfig()
	c.GenProvider = "gemini"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("err = %v, want GEMINI_API_KEY requirement", err)
	}
}

func TestValidate_HistorySource(t *testing.T) {
	c := validConfig()
	c.DatabaseURL = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("err = %v, want DATABASE_URL requirement", err)
	}

	c = validConfig()
	c.HistorySource = "rss"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "HISTORY_FEED_URL") {
		t.Errorf("err = %v, want HISTORY_FEED_URL requirement", err)
	}

	c = validConfig()
	c.HistorySource = "file"
	if err := c.Validate(); err == nil {
		t.Error("unknown history source accepted")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	c := validConfig()
	c.GenProvider = "llama"
	if err := c.Validate(); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if !strings.Contains(p.Prompts.User, "{topic}") || !strings.Contains(p.Prompts.User, "{context}") {
		t.Error("default user prompt lacks placeholders")
	}
	if len(p.Topics.Defaults) == 0 {
		t.Error("no default topics")
	}
	if p.Tags.Extra == "" {
		t.Error("no default extra tags")
	}
}

func TestLoadProfile_MissingFileUsesDefaults(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Prompts.System != defaultSystemPrompt {
		t.Error("missing file should fall back to defaults")
	}
}

func TestLoadProfile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	body := "topics:\n  defaults:\n    - \"космос\"\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Topics.Defaults) != 1 || p.Topics.Defaults[0] != "космос" {
		t.Errorf("topics override not applied: %v", p.Topics.Defaults)
	}
	if p.Prompts.User != defaultUserPrompt {
		t.Error("unset prompt should keep the default")
	}
	if p.Tags.Extra != defaultExtraTags {
		t.Error("unset tags should keep the default")
	}
}

func TestLoadProfile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("prompts: [махровый"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("malformed profile accepted")
	}
}
