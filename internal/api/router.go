package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/auth"
	"github.com/hackgods/clinic-records/internal/clinic"
)

type RouterConfig struct {
	Clinic             *clinic.Service
	Auth               *auth.Service
	Postgres           Pinger
	Redis              Pinger
	Logger             *zap.Logger
	CORSAllowedOrigins []string
	Env                string
	Version            string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", registerHandler(cfg.Auth, log))
			r.Post("/login", loginHandler(cfg.Auth, log))
			r.Post("/refresh", refreshHandler(cfg.Auth, log))
			r.Post("/logout", logoutHandler(cfg.Auth, log))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Auth.Tokens()))

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", listPatientsHandler(cfg.Clinic, log))
				r.Post("/", createPatientHandler(cfg.Clinic, log))
				r.Get("/{id}", getPatientHandler(cfg.Clinic, log))
				r.Put("/{id}", replacePatientHandler(cfg.Clinic, log))
				r.Patch("/{id}", patchPatientHandler(cfg.Clinic, log))
				r.Delete("/{id}", deletePatientHandler(cfg.Clinic, log))
			})

			r.Route("/doctors", func(r chi.Router) {
				r.Get("/", listDoctorsHandler(cfg.Clinic, log))
				r.Post("/", createDoctorHandler(cfg.Clinic, log))
				r.Get("/{id}", getDoctorHandler(cfg.Clinic, log))
				r.Put("/{id}", replaceDoctorHandler(cfg.Clinic, log))
				r.Patch("/{id}", patchDoctorHandler(cfg.Clinic, log))
				r.Delete("/{id}", deleteDoctorHandler(cfg.Clinic, log))
			})

			r.Route("/mappings", func(r chi.Router) {
				r.Get("/", listAssignmentsHandler(cfg.Clinic, log))
				r.Post("/", createAssignmentHandler(cfg.Clinic, log))
				r.Get("/history", assignmentHistoryHandler(cfg.Clinic, log))
				r.Get("/patient/{patientID}", patientAssignmentsHandler(cfg.Clinic, log))
				r.Get("/{id}", getAssignmentHandler(cfg.Clinic, log))
				r.Delete("/{id}", removeAssignmentHandler(cfg.Clinic, log))
			})
		})
	})

	return r
}
