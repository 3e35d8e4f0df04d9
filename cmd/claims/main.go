package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sorrisoclinic/clinic-api/internal/config"
	"github.com/sorrisoclinic/clinic-api/internal/docstore"
	"github.com/sorrisoclinic/clinic-api/internal/firebase"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
)

// decidedBy is recorded as approvedBy for decisions made from this tool.
const decidedBy = "claims-cli"

// claims is the server-side tool for granting doctor or patient claims. It is
// the bootstrap path for the first doctor account.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if !cfg.Firebase.Enabled() {
		log.Fatal().Msg("set FIREBASE_PROJECT_ID, FIREBASE_CREDENTIALS_FILE or FIREBASE_CREDENTIALS_JSON")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clients, err := firebase.New(ctx, cfg.Firebase, cfg.StoreDriver == "firestore")
	if err != nil {
		log.Fatal().Err(err).Msg("firebase")
	}
	defer clients.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "set":
		err = runSet(ctx, cfg, clients, args)
	case "show":
		err = runShow(ctx, clients.Auth, args)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("claims command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "claims CLI")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  claims set --email doc@clinic.com --role doctor")
	fmt.Fprintln(os.Stderr, "  claims set --uid <uid> --role patient --approved=true")
	fmt.Fprintln(os.Stderr, "  claims show --email someone@example.com")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "patient changes go through the registration record (approved or rejected)")
	fmt.Fprintln(os.Stderr, "and need a persistent STORE_DRIVER; doctor claims touch Firebase only.")
}

func runSet(ctx context.Context, cfg *config.Config, clients *firebase.Clients, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		uid      = fs.String("uid", "", "firebase uid")
		email    = fs.String("email", "", "account email (used when --uid is empty)")
		role     = fs.String("role", "", "doctor or patient")
		approved = fs.Bool("approved", false, "approve (true) or reject (false) a patient")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := parseRole(*role)
	if err != nil {
		return err
	}

	user, err := lookupUser(ctx, clients.Auth, *uid, *email)
	if err != nil {
		return err
	}

	if kind == "doctor" {
		claims := map[string]interface{}{"role": "doctor"}
		if err := clients.Auth.SetCustomUserClaims(ctx, user.UID, claims); err != nil {
			return err
		}
		log.Info().Str("uid", user.UID).Str("email", user.Email).Interface("claims", claims).Msg("claims updated")
		return nil
	}

	if cfg.StoreDriver == "memory" {
		return errors.New("patient claims follow the registration record; configure STORE_DRIVER=firestore or postgres")
	}
	store, closeStore, err := docstore.Open(ctx, cfg.StoreDriver, clients.Firestore, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	regs := registration.NewService(registration.NewRepository(store), clients.Auth, log.With().Str("component", "registration").Logger())
	decision, err := decidePatient(ctx, regs, user.UID, user.Email, user.DisplayName, *approved)
	if err != nil {
		return err
	}

	log.Info().Str("uid", user.UID).Str("status", decision.Registration.Status).Bool("claims_synced", decision.ClaimsSynced).Msg("registration decided")
	return nil
}

type decider interface {
	Register(ctx context.Context, input registration.RegisterInput) (*registration.Registration, bool, error)
	Decide(ctx context.Context, uid string, approved bool, doctorEmail string) (*registration.Decision, error)
}

// decidePatient makes sure a registration exists, then records the decision,
// which also writes the role:patient claims. A claims failure is an error
// here, unlike in the HTTP flow, because the operator is waiting on it.
func decidePatient(ctx context.Context, regs decider, uid, email, name string, approved bool) (*registration.Decision, error) {
	if _, _, err := regs.Register(ctx, registration.RegisterInput{UID: uid, Name: name, Email: email}); err != nil {
		return nil, fmt.Errorf("ensure registration: %w", err)
	}
	decision, err := regs.Decide(ctx, uid, approved, decidedBy)
	if err != nil {
		return nil, err
	}
	if !decision.ClaimsSynced {
		return decision, fmt.Errorf("registration is %s but claims were not updated; rerun to retry", decision.Registration.Status)
	}
	return decision, nil
}

func runShow(ctx context.Context, client *fbauth.Client, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		uid   = fs.String("uid", "", "firebase uid")
		email = fs.String("email", "", "account email")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := lookupUser(ctx, client, *uid, *email)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(map[string]any{
		"uid":    user.UID,
		"email":  user.Email,
		"claims": user.CustomClaims,
	}, "", "  ")
	fmt.Println(string(out))
	return nil
}

func parseRole(role string) (string, error) {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case "doctor", "patient":
		return r, nil
	default:
		return "", errors.New("--role must be doctor or patient")
	}
}

func lookupUser(ctx context.Context, client *fbauth.Client, uid, email string) (*fbauth.UserRecord, error) {
	uid, email = strings.TrimSpace(uid), strings.TrimSpace(email)
	switch {
	case uid != "":
		return client.GetUser(ctx, uid)
	case email != "":
		return client.GetUserByEmail(ctx, email)
	default:
		return nil, errors.New("--uid or --email is required")
	}
}
