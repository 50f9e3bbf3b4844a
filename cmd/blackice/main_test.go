package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/afroash/blackice/internal/config"
)

// fakeProvider answers generateContent with reply and lists models
type fakeProvider struct {
	mu         sync.Mutex
	reply      string
	models     []string
	lastPrompt string
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastPrompt = string(body)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": f.reply}},
				},
			}},
		})
	case strings.HasSuffix(r.URL.Path, "/models"):
		items := make([]any, 0, len(f.models))
		for _, name := range f.models {
			items = append(items, map[string]any{"name": name})
		}
		json.NewEncoder(w).Encode(map[string]any{"models": items})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeProvider) prompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

// writeTestConfig writes a config pointing the provider at baseURL
func writeTestConfig(t *testing.T, baseURL, apiKey string) string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")

	content := "gemini:\n" +
		"  api_key: \"" + apiKey + "\"\n" +
		"  base_url: \"" + baseURL + "/\"\n" +
		"  model: gemini-2.5-flash\n" +
		"logging:\n" +
		"  level: error\n"
	path := filepath.Join(t.TempDir(), "blackice.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n{\"risk\":\"HIGH\",\"message\":\"Ice likely\",\"actions\":[\"slow down\"]}\n```"}
	server := httptest.NewServer(provider)
	defer server.Close()

	configPath := writeTestConfig(t, server.URL, "test-key")

	out, err := runCLI(t, "--config", configPath, "classify", "--temperature=-1.8", "--humidity=82", "--wetness=2800")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result["risk"] != "HIGH" {
		t.Errorf("risk = %v, want HIGH", result["risk"])
	}
	if !strings.Contains(provider.prompt(), "Temperature: -1.8") {
		t.Errorf("prompt did not carry the temperature: %s", provider.prompt())
	}
}

func TestClassifyCommand_UnsetFlagsAreUndefined(t *testing.T) {
	provider := &fakeProvider{reply: `{"risk":"LOW","message":"ok","actions":[]}`}
	server := httptest.NewServer(provider)
	defer server.Close()

	configPath := writeTestConfig(t, server.URL, "test-key")

	if _, err := runCLI(t, "--config", configPath, "classify", "--humidity=40"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	prompt := provider.prompt()
	if !strings.Contains(prompt, "Temperature: undefined") {
		t.Errorf("temperature should be undefined: %s", prompt)
	}
	if !strings.Contains(prompt, "Humidity: 40") {
		t.Errorf("humidity missing: %s", prompt)
	}
}

func TestClassifyCommand_Latest(t *testing.T) {
	provider := &fakeProvider{reply: `{"risk":"HIGH","message":"ice","actions":[]}`}
	server := httptest.NewServer(provider)
	defer server.Close()

	configPath := writeTestConfig(t, server.URL, "test-key")

	if _, err := runCLI(t, "--config", configPath, "classify", "--latest"); err != nil {
		t.Fatalf("classify --latest: %v", err)
	}
	if !strings.Contains(provider.prompt(), "Wetness sensor: 2800") {
		t.Errorf("demo reading not classified: %s", provider.prompt())
	}
}

func TestClassifyCommand_MissingKey(t *testing.T) {
	configPath := writeTestConfig(t, "http://127.0.0.1:1", "")

	out, err := runCLI(t, "--config", configPath, "classify", "--temperature=1")
	if err == nil {
		t.Fatal("expected an error without an API key")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result["risk"] != "UNKNOWN" {
		t.Errorf("risk = %v, want UNKNOWN", result["risk"])
	}
	if result["model"] != "gemini-2.5-flash" {
		t.Errorf("model = %v", result["model"])
	}
}

func TestModelsCommand(t *testing.T) {
	provider := &fakeProvider{models: []string{"models/gemini-2.5-flash", "models/gemini-2.0-flash"}}
	server := httptest.NewServer(provider)
	defer server.Close()

	configPath := writeTestConfig(t, server.URL, "test-key")

	t.Run("table", func(t *testing.T) {
		out, err := runCLI(t, "--config", configPath, "models")
		if err != nil {
			t.Fatalf("models: %v", err)
		}
		for _, want := range []string{"Model", "models/gemini-2.5-flash", "models/gemini-2.0-flash", "*"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCLI(t, "--config", configPath, "models", "--json")
		if err != nil {
			t.Fatalf("models --json: %v", err)
		}
		var names []string
		if err := json.Unmarshal([]byte(out), &names); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(names) != 2 || names[0] != "models/gemini-2.5-flash" {
			t.Errorf("names = %v", names)
		}
	})
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "--config", path, "models"); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"#", "Model"}, [][]string{{"1", "models/a"}, {"2"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "models/a") || !strings.Contains(out, "╭") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if !strings.Contains(out, "Model") || strings.Contains(out, "MODEL") {
		t.Errorf("headers should keep their case:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		settings config.LoggingConfig
		wantErr  bool
	}{
		{"json", config.LoggingConfig{Level: "info", Format: "json"}, false},
		{"console", config.LoggingConfig{Level: "debug", Format: "console"}, false},
		{"bad level", config.LoggingConfig{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(tt.settings, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			logger.Info().Msg("hello")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("log line not written: %q", buf.String())
			}
		})
	}
}

func TestOpenReadings(t *testing.T) {
	t.Run("demo", func(t *testing.T) {
		source, closeFn, err := openReadings(config.ReadingsSettings{Source: config.SourceDemo}, zerolog.Nop())
		if err != nil {
			t.Fatalf("openReadings: %v", err)
		}
		defer closeFn()
		if source == nil {
			t.Fatal("nil source")
		}
	})

	t.Run("missing database", func(t *testing.T) {
		_, _, err := openReadings(config.ReadingsSettings{
			Source: config.SourceSQLite,
			DBPath: filepath.Join(t.TempDir(), "absent.db"),
		}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected an error for a missing database")
		}
	})
}
