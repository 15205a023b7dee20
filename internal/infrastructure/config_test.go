package infra

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"--app_id", "wellbeing", "--security.jwt_secret", "s3cret"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Schema != "wellbeing.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Env != EnvDevelopment || cfg.Port != 8081 {
		t.Fatalf("env = %q port = %d", cfg.Env, cfg.Port)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("request_timeout = %v", cfg.RequestTimeout)
	}
	if !cfg.Database.Migrate {
		t.Fatal("database.migrate should default to true")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GOAPP_APP_ID", "from-env")
	t.Setenv("GOAPP_SECURITY_JWT_SECRET", "s3cret")
	t.Setenv("GOAPP_TIMEZONE", "UTC")
	t.Setenv("GOAPP_DATABASE_MAXCONN", "7")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppID != "from-env" || cfg.Timezone != "UTC" || cfg.Database.MaxConn != 7 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigRequiresServerCredentials(t *testing.T) {
	_, err := LoadConfig([]string{
		"--app_id", "wellbeing",
		"--security.jwt_secret", "s3cret",
		"--database.driver", "postgres",
	})
	if err == nil {
		t.Fatal("expected error for postgres without credentials")
	}
	for _, want := range []string{"database.username is required", "database.password is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfig([]string{"--env", "staging", "--timezone", "Nowhere/Land"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"app_id is required", "env must be one of", "Nowhere/Land"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}
