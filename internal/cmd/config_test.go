package cmd

import (
	"testing"
	"time"

	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Base:        "https://api.example.com",
			ContentBase: "https://api.example.com",
			Timeout:     60 * time.Second,
			UserEmail:   "test@example.com",
		},
		Identity: config.IdentityConfig{
			Domain:      "https://auth.example.com",
			ClientID:    "client-1",
			RedirectURI: "https://app.example.com/",
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{
			name: "api.base",
			key:  "api.base",
			want: "https://api.example.com",
		},
		{
			name: "api.timeout",
			key:  "api.timeout",
			want: "1m0s",
		},
		{
			name: "api.user_email",
			key:  "api.user_email",
			want: "test@example.com",
		},
		{
			name: "identity.client_id",
			key:  "identity.client_id",
			want: "client-1",
		},
		{
			name: "log.level",
			key:  "log.level",
			want: "info",
		},
		{
			name:    "unknown key",
			key:     "nope.nothing",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getConfigValue(cfg, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getConfigValue(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("getConfigValue(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := testConfig()

	if err := setConfigValue(cfg, "api.base", "https://other.example.com/"); err != nil {
		t.Fatalf("setConfigValue: %v", err)
	}
	if cfg.API.Base != "https://other.example.com" {
		t.Errorf("api.base = %q, want trailing slash trimmed", cfg.API.Base)
	}

	if err := setConfigValue(cfg, "api.timeout", "30s"); err != nil {
		t.Fatalf("setConfigValue: %v", err)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("api.timeout = %v, want 30s", cfg.API.Timeout)
	}

	if err := setConfigValue(cfg, "api.timeout", "soon"); err == nil {
		t.Error("expected error for non-duration timeout")
	}

	if err := setConfigValue(cfg, "nope.nothing", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestReadInputTextPrefersFlag(t *testing.T) {
	generateText = "from flag"
	generateFile = ""
	defer func() { generateText = "" }()

	got, err := readInputText()
	if err != nil {
		t.Fatalf("readInputText: %v", err)
	}
	if got != "from flag" {
		t.Errorf("readInputText = %q, want %q", got, "from flag")
	}
}

func TestCommandTree(t *testing.T) {
	expected := []string{
		"dashboard", "generate", "content", "board", "image",
		"auth", "config", "version", "completion",
	}

	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range expected {
		if !registered[name] {
			t.Errorf("command %q not registered on root", name)
		}
	}
}
