package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sorrisoclinic/clinic-api/internal/booking"
	"github.com/sorrisoclinic/clinic-api/internal/config"
	"github.com/sorrisoclinic/clinic-api/internal/docstore"
	httpmiddleware "github.com/sorrisoclinic/clinic-api/internal/http/middleware"
	"github.com/sorrisoclinic/clinic-api/internal/identity"
	"github.com/sorrisoclinic/clinic-api/internal/patient"
	"github.com/sorrisoclinic/clinic-api/internal/registration"
	"github.com/sorrisoclinic/clinic-api/internal/service"
)

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Deps are the services the router serves. Redis and Claims are optional.
type Deps struct {
	Config        *config.Config
	Store         docstore.Store
	Redis         redisPinger
	Auth          *service.AuthService
	Resolver      *identity.Resolver
	Bookings      *booking.Service
	Patients      *patient.Service
	Registrations *registration.Service
	Claims        registration.ClaimsSetter
}

type Handler struct {
	cfg           *config.Config
	store         docstore.Store
	redis         redisPinger
	auth          *service.AuthService
	resolver      *identity.Resolver
	bookings      *booking.Service
	patients      *patient.Service
	registrations *registration.Service
	claims        registration.ClaimsSetter
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	userLimiter   *httpmiddleware.RateLimiter
}

// NewRouter returns the configured router.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	h := &Handler{
		cfg:           cfg,
		store:         d.Store,
		redis:         d.Redis,
		auth:          d.Auth,
		resolver:      d.Resolver,
		bookings:      d.Bookings,
		patients:      d.Patients,
		registrations: d.Registrations,
		claims:        d.Claims,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		userLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
	}

	doctor := httpmiddleware.RequireDoctor(h.resolver)
	patientOnly := httpmiddleware.RequirePatient(h.resolver)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		api.Get("/health", h.Health)
		api.Get("/ready", h.Ready)

		api.Route("/auth", func(a chi.Router) {
			a.With(httpmiddleware.IPRateLimit(h.authLimiter)).Post("/login", h.Login)
			a.Get("/validate", h.Validate)
			a.Post("/logout", h.Logout)
			a.With(doctor).Post("/set-doctor-claims", h.SetDoctorClaims)
		})

		api.Route("/users", func(u chi.Router) {
			u.Post("/register", h.Register)
			u.Get("/status/{uid}", h.RegistrationStatus)
			u.Group(func(d chi.Router) {
				d.Use(doctor, httpmiddleware.UserRateLimit(h.userLimiter))
				d.Get("/pending", h.ListPending)
				d.Post("/approve", h.Approve)
			})
		})

		api.Route("/bookings", func(b chi.Router) {
			b.With(httpmiddleware.OptionalDoctor(h.resolver)).Get("/", h.ListBookings)
			b.Post("/", h.CreateBooking)
			b.Group(func(d chi.Router) {
				d.Use(doctor, httpmiddleware.UserRateLimit(h.userLimiter))
				d.Get("/{id}", h.GetBooking)
				d.Put("/{id}", h.UpdateBooking)
				d.Delete("/{id}", h.DeleteBooking)
			})
		})

		api.Route("/patients", func(p chi.Router) {
			p.Use(doctor, httpmiddleware.UserRateLimit(h.userLimiter))
			p.Get("/", h.ListPatients)
			p.Post("/", h.CreatePatient)
			p.Route("/{id}", func(one chi.Router) {
				one.Get("/", h.GetPatient)
				one.Put("/", h.UpdatePatient)
				one.Delete("/", h.DeletePatient)
				one.Route("/records", func(rec chi.Router) {
					rec.Get("/", h.ListRecords)
					rec.Post("/", h.CreateRecord)
					rec.Get("/{rid}", h.GetRecord)
					rec.Put("/{rid}", h.UpdateRecord)
					rec.Delete("/{rid}", h.DeleteRecord)
				})
			})
		})

		api.Route("/me", func(m chi.Router) {
			m.Use(patientOnly, httpmiddleware.UserRateLimit(h.userLimiter))
			m.Get("/patient", h.MyPatient)
			m.Get("/records", h.MyRecords)
			m.Get("/bookings", h.MyBookings)
		})
	})

	return r
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": h.store.Name()})
}

// Ready checks the document store and, when configured, Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	var failed []string

	if err := h.store.Ping(ctx); err != nil {
		reqLogger(r).Warn().Err(err).Msg("store ping failed")
		failed = append(failed, "store")
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			reqLogger(r).Warn().Err(err).Msg("redis ping failed")
			failed = append(failed, "redis")
		}
	}

	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "unavailable: "+strings.Join(failed, ", "), nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ready": true, "checks": checks})
}
