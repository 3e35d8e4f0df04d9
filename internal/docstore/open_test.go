package docstore

import (
	"context"
	"testing"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := Open(ctx, "memory", nil, "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	closeStore()
	if store.Name() != "memory" {
		t.Fatalf("unexpected backend %s", store.Name())
	}

	if _, _, err := Open(ctx, "firestore", nil, ""); err == nil {
		t.Fatal("expected error for firestore without a client")
	}
	if _, _, err := Open(ctx, "mongo", nil, ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
