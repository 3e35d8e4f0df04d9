package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
	"github.com/sorrisoclinic/clinic-api/internal/booking"
	"github.com/sorrisoclinic/clinic-api/internal/config"
	"github.com/sorrisoclinic/clinic-api/internal/docstore"
	"github.com/sorrisoclinic/clinic-api/internal/firebase"
	internalhttp "github.com/sorrisoclinic/clinic-api/internal/http"
	"github.com/sorrisoclinic/clinic-api/internal/identity"
	"github.com/sorrisoclinic/clinic-api/internal/mail"
	"github.com/sorrisoclinic/clinic-api/internal/notify"
	"github.com/sorrisoclinic/clinic-api/internal/patient"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
	"github.com/sorrisoclinic/clinic-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api stopped with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.InsecureSecret() {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}

	ctx := context.Background()

	var fbClients *firebase.Clients
	if cfg.Firebase.Enabled() {
		fbClients, err = firebase.New(ctx, cfg.Firebase, cfg.StoreDriver == "firestore")
		if err != nil {
			return err
		}
		defer fbClients.Close()
		log.Info().Msg("firebase admin initialized")
	} else {
		log.Warn().Msg("firebase not configured, patient sign-in disabled")
	}

	var firestoreClient *firestore.Client
	if fbClients != nil {
		firestoreClient = fbClients.Firestore
	}
	store, closeStore, err := docstore.Open(ctx, cfg.StoreDriver, firestoreClient, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("no persistent store configured, data is kept in memory only")
	}
	log.Info().Str("store", store.Name()).Msg("document store ready")

	var (
		redisClient *redis.Client
		denylist    auth.Denylist
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
		denylist = auth.NewRedisDenylist(redisClient)
		log.Info().Msg("token revocation enabled")
	}

	var mailer mail.Mailer
	if cfg.SMTP.Enabled() {
		smtp := mail.NewSMTPMailer(mail.Config{
			Host:   cfg.SMTP.Host,
			Port:   cfg.SMTP.Port,
			Secure: cfg.SMTP.Secure,
			User:   cfg.SMTP.User,
			Pass:   cfg.SMTP.Pass,
			From:   cfg.SMTP.MailFrom,
		})
		if err := smtp.Verify(); err != nil {
			log.Error().Err(err).Msg("smtp verify failed, email disabled")
		} else {
			mailer = smtp
			log.Info().Msg("smtp transport verified")
		}
	} else {
		log.Info().Msg("SMTP variables not fully set, email disabled")
	}

	var alerts notify.Alerter
	if slack := notify.NewSlackNotifier(cfg.SlackWebhookURL); slack != nil {
		alerts = slack
	}

	var claims registration.ClaimsSetter
	var idVerifier identity.IDTokenVerifier
	if fbClients != nil {
		claims = fbClients.Auth
		idVerifier = fbClients.Auth
	}

	creds := auth.Credentials{
		Email:        cfg.Doctor.Email,
		Password:     cfg.Doctor.Password,
		PasswordHash: cfg.Doctor.PasswordHash,
	}
	if !creds.Configured() {
		log.Warn().Msg("doctor credentials not configured, doctor login disabled")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.DoctorTokenTTL)
	authService := service.NewAuthService(creds, tokens, denylist, log.With().Str("component", "auth").Logger())

	registrations := registration.NewService(registration.NewRepository(store), claims, log.With().Str("component", "registration").Logger())
	notifier := notify.NewBookingNotifier(mailer, cfg.SMTP.MailTo, cfg.SMTP.MailAck, alerts, log.With().Str("component", "notify").Logger())
	bookings := booking.NewService(booking.NewRepository(store), notifier, log.With().Str("component", "booking").Logger())
	patients := patient.NewService(patient.NewRepository(store), log.With().Str("component", "patient").Logger())

	resolver := identity.NewResolver(identity.Config{
		Doctors:         authService,
		Firebase:        idVerifier,
		Approvals:       registrations,
		RequireApproval: cfg.RequireApproval,
		Logger:          log.With().Str("component", "identity").Logger(),
	})

	deps := internalhttp.Deps{
		Config:        cfg,
		Store:         store,
		Auth:          authService,
		Resolver:      resolver,
		Bookings:      bookings,
		Patients:      patients,
		Registrations: registrations,
		Claims:        claims,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           internalhttp.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API listening on :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	bookings.Wait(shutdownCtx)
	return nil
}
