package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sorrisoclinic/clinic-api/internal/docstore"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
)

type stubClaims struct {
	set map[string]map[string]interface{}
	err error
}

func (s *stubClaims) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.set[uid] = claims
	return nil
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]string{"Doctor": "doctor", " patient ": "patient"} {
		got, err := parseRole(in)
		if err != nil || got != want {
			t.Fatalf("parseRole(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := parseRole("admin"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestDecidePatientKeepsRecordAndClaimsInStep(t *testing.T) {
	ctx := context.Background()
	claims := &stubClaims{set: map[string]map[string]interface{}{}}
	regs := registration.NewService(registration.NewRepository(docstore.NewMemory()), claims, zerolog.Nop())

	decision, err := decidePatient(ctx, regs, "u1", "a@b.com", "Ann", true)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decision.Registration.Status != registration.StatusApproved || decision.Registration.ApprovedBy != decidedBy {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if claims.set["u1"]["role"] != "patient" || claims.set["u1"]["approved"] != true {
		t.Fatalf("unexpected claims %v", claims.set["u1"])
	}

	status, err := regs.Status(ctx, "u1")
	if err != nil || status != registration.StatusApproved {
		t.Fatalf("status endpoint would report %q (%v)", status, err)
	}

	if _, err := decidePatient(ctx, regs, "u1", "a@b.com", "Ann", false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if status, _ := regs.Status(ctx, "u1"); status != registration.StatusRejected {
		t.Fatalf("expected rejected, got %q", status)
	}
}

func TestDecidePatientReportsClaimsFailure(t *testing.T) {
	ctx := context.Background()
	claims := &stubClaims{set: map[string]map[string]interface{}{}, err: errors.New("firebase down")}
	regs := registration.NewService(registration.NewRepository(docstore.NewMemory()), claims, zerolog.Nop())

	if _, err := decidePatient(ctx, regs, "u1", "a@b.com", "", true); err == nil {
		t.Fatal("expected error when claims were not written")
	}
}
