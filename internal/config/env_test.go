package config

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("API_BASE_URL", "http://api.local/api/")
	t.Setenv("HTTP_TIMEOUT", "bogus")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a , ,http://b")

	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("AppAddr default = %q", env.AppAddr)
	}
	if env.APIBaseURL != "http://api.local/api" {
		t.Fatalf("APIBaseURL should drop trailing slash, got %q", env.APIBaseURL)
	}
	if env.HTTPTimeout != 15*time.Second {
		t.Fatalf("invalid duration should fall back, got %s", env.HTTPTimeout)
	}
	if len(env.CORSAllowedOrigins) != 2 {
		t.Fatalf("origins = %#v", env.CORSAllowedOrigins)
	}
}

func TestLoadEnvWarnsOnDefaultSessionSecret(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	t.Setenv("SESSION_SECRET", "")
	env := LoadEnv()
	if env.SessionSecret != defaultSessionSecret {
		t.Fatalf("SessionSecret = %q", env.SessionSecret)
	}
	if !strings.Contains(buf.String(), "SESSION_SECRET") {
		t.Fatalf("expected a warning for the default session secret, log = %q", buf.String())
	}

	buf.Reset()
	t.Setenv("SESSION_SECRET", "s3cret")
	if env := LoadEnv(); env.SessionSecret != "s3cret" {
		t.Fatalf("SessionSecret = %q", env.SessionSecret)
	}
	if strings.Contains(buf.String(), "SESSION_SECRET") {
		t.Fatalf("no warning expected when the secret is set, log = %q", buf.String())
	}
}

func TestSQLDriverName(t *testing.T) {
	cases := map[string]string{"": "sqlite", "sqlite": "sqlite", "mysql": "mysql", "postgres": "pgx"}
	for in, want := range cases {
		got, err := SQLDriverName(in)
		if err != nil || got != want {
			t.Fatalf("SQLDriverName(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := SQLDriverName("oracle"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
