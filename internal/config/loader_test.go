package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"ATTENDANCE_HTTP_PORT",
			"ATTENDANCE_SQLITE_DSN",
			"ATTENDANCE_SESSION_TTL",
			"ATTENDANCE_TIMEZONE",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("ATTENDANCE_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:attendance.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret to be %q, got %q", secret, cfg.SessionSecret)
		}
		if cfg.Timezone != "Asia/Tokyo" {
			t.Fatalf("expected default timezone Asia/Tokyo, got %q", cfg.Timezone)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"ATTENDANCE_SESSION_SECRET",
			"ATTENDANCE_HTTP_PORT",
			"ATTENDANCE_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "必須の環境変数が設定されていません: ATTENDANCE_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("ATTENDANCE_SESSION_SECRET", "secret-value")
		t.Setenv("ATTENDANCE_HTTP_PORT", "9090")
		t.Setenv("ATTENDANCE_SQLITE_DSN", "file:/tmp/attendance.db")
		t.Setenv("ATTENDANCE_SESSION_TTL", "12h")
		t.Setenv("ATTENDANCE_TIMEZONE", "UTC")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.Timezone != "UTC" {
			t.Fatalf("expected timezone UTC, got %q", cfg.Timezone)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("ATTENDANCE_SESSION_SECRET", "secret-value")
		t.Setenv("ATTENDANCE_HTTP_PORT", "not-a-port")
		t.Setenv("ATTENDANCE_SESSION_TTL", "-1h")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed values")
		}
		expected := "環境変数の値が不正です: ATTENDANCE_HTTP_PORT, ATTENDANCE_SESSION_TTL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}
