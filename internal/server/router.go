// Package server assembles the development API: the REST surface the clinic
// client is written against.
package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk-go/internal/crypto"
	"github.com/clinicdesk/clinicdesk-go/internal/handler"
	"github.com/clinicdesk/clinicdesk-go/internal/middleware"
	"github.com/clinicdesk/clinicdesk-go/internal/repository"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
	"github.com/clinicdesk/clinicdesk-go/internal/service"
)

// Options configures the router.
type Options struct {
	JWTSecret      string
	JWTExpiry      time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// PatchDisabled names collections served without a PATCH route; clients
	// get a 404 and fall back to PUT.
	PatchDisabled []string
	Logger        zerolog.Logger
}

// NewRouter wires repositories, services and handlers over db.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	userRepo := repository.NewUserRepository(db)
	tokens := crypto.NewTokens(opts.JWTSecret, opts.JWTExpiry)
	authService := service.NewAuthService(userRepo, tokens)
	authHandler := handler.NewAuthHandler(authService, opts.Logger)

	recordRepo := repository.NewRecordRepository(db)
	recordService := service.NewRecordService(recordRepo)
	recordHandler := handler.NewRecordHandler(recordService, opts.Logger)

	noPatch := make(map[string]bool, len(opts.PatchDisabled))
	for _, name := range opts.PatchDisabled {
		noPatch[name] = true
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		r.Get("/me", authHandler.HandleMe)

		for _, name := range resource.Clinic().Names() {
			kind, _ := resource.Clinic().Lookup(name)
			r.Route(kind.Path(), func(r chi.Router) {
				// An unsupported verb reads as a missing route, so a PATCH
				// on a collection without one answers 404.
				r.MethodNotAllowed(notFound)
				r.Get("/", recordHandler.HandleList(kind))
				r.Post("/", recordHandler.HandleCreate(kind))
				r.Get("/{id}", recordHandler.HandleGet(kind))
				r.Put("/{id}", recordHandler.HandlePut(kind))
				r.Delete("/{id}", recordHandler.HandleDelete(kind))
				if !noPatch[kind.Name] {
					r.Patch("/{id}", recordHandler.HandlePatch(kind))
				}
			})
		}
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"message": "Cannot " + r.Method + " " + r.URL.Path})
}
