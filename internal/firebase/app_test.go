package firebase

import (
	"context"
	"testing"

	"github.com/sorrisoclinic/clinic-api/internal/config"
)

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), config.FirebaseConfig{}, false); err == nil {
		t.Fatal("expected error without configuration")
	}
}

func TestClientOptions(t *testing.T) {
	ctx := context.Background()

	opts, project, err := clientOptions(ctx, config.FirebaseConfig{ProjectID: "clinic"})
	if err != nil || len(opts) != 0 || project != "clinic" {
		t.Fatalf("expected default credentials, got %d opts, %q, %v", len(opts), project, err)
	}

	opts, _, err = clientOptions(ctx, config.FirebaseConfig{CredentialsFile: "/etc/clinic/sa.json"})
	if err != nil || len(opts) != 1 {
		t.Fatalf("expected file option, got %d opts, %v", len(opts), err)
	}

	if _, _, err := clientOptions(ctx, config.FirebaseConfig{CredentialsJSON: "{not json"}); err == nil {
		t.Fatal("expected error for malformed credentials json")
	}
}
