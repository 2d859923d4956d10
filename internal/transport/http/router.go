package http

import (
	"net/http"

	"github.com/go-account-api/internal/config"
	"github.com/go-account-api/internal/transport/http/handler"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(deps.Account)
	userH := handler.NewUserHandler(deps.Account)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Post("/account/login", accountH.Login)
		r.Post("/account/send-email-verification-code", accountH.SendEmailVerificationCode)
		r.Post("/account/verify-email", accountH.VerifyEmail)
		r.Post("/account/forgot-password", accountH.ForgotPassword)
		r.Post("/account/reset-password", accountH.ResetPassword)

		r.Post("/users", userH.Register)
		r.Get("/users/{id}", userH.Get)
	})

	return r
}
