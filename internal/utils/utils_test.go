package utils

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestConfigTemplateContent(t *testing.T) {
	requiredSections := []string{
		"api_key",
		"api_url",
		"username",
		"password",
		"session_key",
		"loglevel",
		"timeout",
		"speed_limit",
		"strict_file_size",
		"[upload]",
		"description",
		"folder_id",
		"recipient_email",
		"notify_uploader",
		"redirect_url",
	}

	for _, section := range requiredSections {
		if !strings.Contains(configTemplate, section) {
			t.Errorf("configTemplate missing required section: %s", section)
		}
	}
}

func TestConfigTemplatePlaceholders(t *testing.T) {
	for _, placeholder := range []string{"{{SENDSPACE_API_KEY}}", "{{SENDSPACE_USERNAME}}"} {
		if !strings.Contains(configTemplate, placeholder) {
			t.Errorf("configTemplate missing %s placeholder", placeholder)
		}
	}
}

func TestRenderConfigIsValidTOML(t *testing.T) {
	rendered := RenderConfig("my-key", "alice")

	var decoded struct {
		APIKey   string `toml:"api_key"`
		Username string `toml:"username"`
		Timeout  int    `toml:"timeout"`
		Upload   struct {
			NotifyUploader bool `toml:"notify_uploader"`
		} `toml:"upload"`
	}
	if _, err := toml.Decode(rendered, &decoded); err != nil {
		t.Fatalf("rendered config is not valid TOML: %v", err)
	}
	if decoded.APIKey != "my-key" {
		t.Errorf("expected api_key 'my-key', got '%s'", decoded.APIKey)
	}
	if decoded.Username != "alice" {
		t.Errorf("expected username 'alice', got '%s'", decoded.Username)
	}
	if decoded.Timeout != 30 {
		t.Errorf("expected timeout 30, got %d", decoded.Timeout)
	}
	if strings.Contains(rendered, "{{") {
		t.Error("rendered config still contains placeholders")
	}
}

func TestGenerateConfigCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "nested", "config.toml")

	if err := GenerateConfig(configPath, "key", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestGenerateConfigBacksUpExisting(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("old content"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if err := GenerateConfig(configPath, "new-key", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backup, err := os.ReadFile(configPath + ".bak")
	if err != nil {
		t.Fatalf("backup not created: %v", err)
	}
	if string(backup) != "old content" {
		t.Errorf("unexpected backup content: %q", backup)
	}

	current, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(current), `api_key = "new-key"`) {
		t.Error("new config missing api key")
	}
}

func TestPromptPasswordTerminal(t *testing.T) {
	origRead, origIsTerminal := readPassword, isTerminal
	defer func() { readPassword, isTerminal = origRead, origIsTerminal }()

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	pw, err := PromptPassword(&out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pw != "s3cret" {
		t.Errorf("expected password 's3cret', got %q", pw)
	}
	if !strings.HasPrefix(out.String(), "Sendspace password: ") {
		t.Errorf("unexpected prompt %q", out.String())
	}
}

func TestPromptPasswordTerminalError(t *testing.T) {
	origRead, origIsTerminal := readPassword, isTerminal
	defer func() { readPassword, isTerminal = origRead, origIsTerminal }()

	readErr := errors.New("tty gone")
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return nil, readErr }

	if _, err := PromptPassword(&bytes.Buffer{}); !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"newline", "secret\n", "secret", false},
		{"crlf", "secret\r\n", "secret", false},
		{"no newline", "secret", "secret", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readLine(bufio.NewReader(strings.NewReader(tt.input)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
