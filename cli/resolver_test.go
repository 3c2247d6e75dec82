package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/log"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}

	return v
}

func TestResolve_YAML(t *testing.T) {
	config := `
log:
  level: debug
  pretty: false
timeout: 2s
jobs: 4
data: [a.yaml, b.json]
set:
  title: Home
  count: 3
`

	r, err := resolve(yaml.Unmarshal)(strings.NewReader(config))
	if err != nil {
		t.Fatalf("loader failed: %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-pretty", "false"},
		{"timeout", "2s"},
		{"jobs", "4"},
		{"data", "a.yaml,b.json"},
		{"set", "count=3;title=Home"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := resolveFlag(t, r, tt.flag); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_TOML(t *testing.T) {
	config := `
strict = true
escape = "html"

[log]
format = "json"
`

	r, err := resolve(toml.Unmarshal)(strings.NewReader(config))
	if err != nil {
		t.Fatalf("loader failed: %v", err)
	}

	for flag, want := range map[string]string{
		"strict":     "true",
		"escape":     "html",
		"log-format": "json",
	} {
		if got := resolveFlag(t, r, flag); got != want {
			t.Errorf("%s: got %v, want %v", flag, got, want)
		}
	}
}

func TestResolve_UnderscoreKeys(t *testing.T) {
	r, err := resolve(yaml.Unmarshal)(strings.NewReader("log_level: error\n"))
	if err != nil {
		t.Fatalf("loader failed: %v", err)
	}

	if got := resolveFlag(t, r, "log-level"); got != "error" {
		t.Errorf("expected log-level=error, got %v", got)
	}
}

func TestResolve_InvalidDocumentIsEmpty(t *testing.T) {
	r, err := resolve(yaml.Unmarshal)(strings.NewReader("- just\n- a list\n"))
	if err != nil {
		t.Fatalf("loader failed: %v", err)
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	if got := resolveFlag(t, r, "just"); got != nil {
		t.Errorf("expected empty config, got %v", got)
	}
}

func TestResolve_ReadError(t *testing.T) {
	_, err := resolve(yaml.Unmarshal)(&errorReader{err: errTooLarge})
	if err == nil {
		t.Error("expected read error")
	}
}

func TestLogConfig_Scan(t *testing.T) {
	original := log.Default()
	t.Cleanup(func() { log.SetDefault(original) })

	var cfg logConfig

	cfg.scan([]string{
		"render", "--log-level", "debug", "--log-format=json",
		"--no-log-pretty", "--log-caller=true", "x.txt",
	})

	if cfg.Level != "debug" || cfg.Format != "json" || cfg.Pretty || !cfg.Caller {
		t.Errorf("unexpected config %+v", cfg)
	}

	cfg.scan([]string{"--", "--log-level=error"})

	if cfg.Level != "debug" {
		t.Errorf("scanned past --: %+v", cfg)
	}
}

type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (int, error) {
	return 0, e.err
}

var errTooLarge = errors.New("too large")
