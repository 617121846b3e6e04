package support

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FWU_TEST_ENV", "value")
	if got := GetEnv("FWU_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("GetEnv returned %s, want value", got)
	}

	if got := GetEnv("FWU_TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %s, want fallback", got)
	}
}

func TestFirstEnv(t *testing.T) {
	t.Setenv("FWU_FIRST", "")
	t.Setenv("FWU_SECOND", " second ")

	if got := FirstEnv("fallback", "FWU_FIRST", "FWU_SECOND"); got != "second" {
		t.Fatalf("FirstEnv returned %q, want second", got)
	}
	if got := FirstEnv("fallback", "FWU_FIRST"); got != "fallback" {
		t.Fatalf("FirstEnv returned %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("FWU_INT", "42")
	if got := GetEnvInt("FWU_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt returned %d, want 42", got)
	}

	t.Setenv("FWU_INT_BAD", "forty-two")
	if got := GetEnvInt("FWU_INT_BAD", 7); got != 7 {
		t.Fatalf("GetEnvInt with invalid value returned %d, want 7", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "90s", 90 * time.Second},
		{"plain seconds", "15", 15 * time.Second},
		{"invalid", "soon", time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("FWU_DURATION", tc.value)
			if got := GetEnvDuration("FWU_DURATION", time.Minute); got != tc.want {
				t.Fatalf("GetEnvDuration(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}

	if got := GetEnvDuration("FWU_DURATION_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("GetEnvDuration for unset key = %v, want 1m", got)
	}
}

func TestMalformedEnvValuesAreLogged(t *testing.T) {
	logs := captureLogs(t)

	t.Setenv("PORT", "abc")
	if got := GetEnvInt("PORT", 8080); got != 8080 {
		t.Fatalf("GetEnvInt returned %d, want fallback 8080", got)
	}
	if !strings.Contains(logs.String(), "PORT") || !strings.Contains(logs.String(), "abc") {
		t.Fatalf("expected a warning naming PORT=abc, got %q", logs.String())
	}

	logs.Reset()
	t.Setenv("FETCH_TIMEOUT", "abc")
	if got := GetEnvDuration("FETCH_TIMEOUT", 30*time.Second); got != 30*time.Second {
		t.Fatalf("GetEnvDuration returned %v, want fallback 30s", got)
	}
	if !strings.Contains(logs.String(), "FETCH_TIMEOUT") {
		t.Fatalf("expected a warning naming FETCH_TIMEOUT, got %q", logs.String())
	}
}

func TestEmptyEnvValuesAreSilent(t *testing.T) {
	logs := captureLogs(t)

	t.Setenv("PORT", "")
	t.Setenv("FETCH_TIMEOUT", "")
	if got := GetEnvInt("PORT", 8080); got != 8080 {
		t.Fatalf("GetEnvInt returned %d, want 8080", got)
	}
	if got := GetEnvDuration("FETCH_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("GetEnvDuration returned %v, want 1s", got)
	}
	if logs.Len() != 0 {
		t.Fatalf("empty values should not warn, got %q", logs.String())
	}
}
