package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.Provider != ProviderLocal || cfg.StorageDriver != DriverSQLite {
		t.Fatalf("provider/driver = %q/%q", cfg.Provider, cfg.StorageDriver)
	}
	if cfg.HTTPRequestTimeout != 10*time.Second || cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("timeouts = %v/%v", cfg.HTTPRequestTimeout, cfg.TokenTTL)
	}
	if cfg.AdminEmail != "admin@test.com" || cfg.EmailFrom != "onboarding@resend.dev" {
		t.Fatalf("admin/from = %q/%q", cfg.AdminEmail, cfg.EmailFrom)
	}
	if cfg.JWTSecret != "" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("optional integrations enabled by default: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKINGHUB_PROVIDER", "Remote")
	t.Setenv("BOOKINGHUB_STORAGE_DRIVER", "redis")
	t.Setenv("NEXT_PUBLIC_API_URL", "http://api.test/api")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("BOOKINGHUB_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BOOKINGHUB_REMOTE_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider != ProviderRemote || cfg.StorageDriver != DriverRedis {
		t.Fatalf("provider/driver = %q/%q", cfg.Provider, cfg.StorageDriver)
	}
	if cfg.RemoteBaseURL != "http://api.test/api" || cfg.RemoteTimeout != 3*time.Second {
		t.Fatalf("remote = %q/%v", cfg.RemoteBaseURL, cfg.RemoteTimeout)
	}
	if cfg.ResendAPIKey != "re_123" {
		t.Fatalf("ResendAPIKey = %q", cfg.ResendAPIKey)
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Fatalf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown provider": {"BOOKINGHUB_PROVIDER", "ftp"},
		"unknown driver":   {"BOOKINGHUB_STORAGE_DRIVER", "mongo"},
		"bad duration":     {"BOOKINGHUB_SHUTDOWN_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLocation(t *testing.T) {
	if loc, err := (Config{Timezone: "Local"}).Location(); err != nil || loc != time.Local {
		t.Fatalf("Location(Local) = %v, %v", loc, err)
	}
	loc, err := (Config{Timezone: "Europe/Berlin"}).Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Fatalf("Location(Europe/Berlin) = %v, %v", loc, err)
	}
	if _, err := (Config{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
