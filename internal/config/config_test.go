package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testKey = `{"type":"service_account","project_id":"p","client_email":"svc@p.iam.gserviceaccount.com"}`

func validConfig() *Config {
	cfg := Default()
	cfg.Google.ServiceAccountKey = testKey
	return cfg
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ROOMBOOK_LISTEN", "CALENDAR_TIMEZONE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
		"GOOGLE_SERVICE_ACCOUNT_KEY", "GOOGLE_SERVICE_ACCOUNT_KEY_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_Defaults(t *testing.T) {
	clearEnv(t)
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_MissingServiceAccountKey(t *testing.T) {
	clearEnv(t)
	if err := Default().Validate(); err == nil {
		t.Fatalf("expected error for missing service account key")
	}
}

func TestValidate_InvalidKeyJSON(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Google.ServiceAccountKey = "not json"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for invalid key JSON")
	}
}

func TestValidate_OAuthHalfConfigured(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.Google.ClientID = "id-only"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when only client_id is set")
	}
}

func TestValidate_BadTimezone(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestValidate_ReversedBusinessWindow(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.BusinessOpen = "18:00"
	cfg.BusinessClose = "09:00"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for reversed business window")
	}
}

func TestValidate_SlotMustDivideWindow(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.SlotMinutes = 7
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when slots do not divide the window")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen: \":9090\"\ntimezone: Europe/Berlin\nslot_minutes: 15\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CALENDAR_TIMEZONE", "Europe/Lisbon")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_KEY", testKey)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected listen from file, got %q", cfg.Listen)
	}
	if cfg.SlotMinutes != 15 {
		t.Errorf("expected slot_minutes from file, got %d", cfg.SlotMinutes)
	}
	// Environment wins over the file.
	if cfg.Timezone != "Europe/Lisbon" {
		t.Errorf("expected timezone from env, got %q", cfg.Timezone)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestServiceAccountJSON_FileFallback(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, []byte(testKey), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	cfg := Default()
	cfg.Google.ServiceAccountKeyFile = path

	b, err := cfg.ServiceAccountJSON()
	if err != nil {
		t.Fatalf("ServiceAccountJSON: %v", err)
	}
	if string(b) != testKey {
		t.Errorf("unexpected key bytes: %s", b)
	}
}

func TestBusinessWindowMinutes(t *testing.T) {
	cfg := Default()
	if cfg.OpenMinute() != 9*60 {
		t.Errorf("expected 540, got %d", cfg.OpenMinute())
	}
	if cfg.CloseMinute() != 18*60 {
		t.Errorf("expected 1080, got %d", cfg.CloseMinute())
	}
}
