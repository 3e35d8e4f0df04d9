package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "5174")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DOCTOR_TOKEN_TTL", "")
	t.Setenv("STORE_DRIVER", "auto")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("FIREBASE_CREDENTIALS_FILE", "")
	t.Setenv("FIREBASE_CREDENTIALS_JSON", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("SMTP_PORT", "587")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.InsecureSecret() {
		t.Fatalf("expected development secret, got %q", cfg.JWTSecret)
	}
	if cfg.DoctorTokenTTL != 8*time.Hour {
		t.Fatalf("expected 8h ttl, got %s", cfg.DoctorTokenTTL)
	}
	if cfg.StoreDriver != "memory" {
		t.Fatalf("expected memory driver, got %s", cfg.StoreDriver)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "5174")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SMTP_PORT", "587")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for default secret in production")
	}
}

func TestLoadApprovalAlias(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "5174")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("REQUIRE_APPROVAL", "")
	t.Setenv("VITE_REQUIRE_APPROVAL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.RequireApproval {
		t.Fatal("expected approval gate enabled via VITE_REQUIRE_APPROVAL")
	}
}

func TestLoadSMTPDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "5174")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "clinic@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("MAIL_TO", "")
	t.Setenv("MAIL_FROM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.SMTP.Enabled() {
		t.Fatal("expected smtp enabled")
	}
	if cfg.SMTP.Port != 465 {
		t.Fatalf("expected port 465, got %d", cfg.SMTP.Port)
	}
	if cfg.SMTP.MailTo != "clinic@example.com" || cfg.SMTP.MailFrom != "clinic@example.com" {
		t.Fatalf("expected MAIL_TO/MAIL_FROM to fall back to SMTP_USER, got %q/%q", cfg.SMTP.MailTo, cfg.SMTP.MailFrom)
	}
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "5174")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("SMTP_PORT", "587")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}
