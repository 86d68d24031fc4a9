// Package gateway assembles the HTTP-facing API: routing, auth guard
// and the translation of requests into directory RPCs.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/finnh/taskdeck/internal/gateway/clients"
	"github.com/finnh/taskdeck/internal/gateway/handlers"
	"github.com/finnh/taskdeck/internal/gateway/middleware"
	"github.com/finnh/taskdeck/pkg/bus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	Bus            *bus.Bus
	Redis          *redis.Client
	Logger         *slog.Logger
	Tokens         *clients.TokenClient
	Users          *clients.UserClient
	Projects       *clients.ProjectClient
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.Bus, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.Tokens, cfg.Users, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(cfg.Projects, cfg.Logger)
	memberHandler := handlers.NewMemberHandler(cfg.Projects, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/verify-email-token", authHandler.VerifyEmailToken)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Get("/auth/validate-forgot-password-token", authHandler.ValidateResetToken)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		// Invitation responses are authenticated by the token in the
		// path, not by a session: invitees may not have an account yet.
		r.Route("/invitations/{token}", func(r chi.Router) {
			r.Get("/", memberHandler.GetInvitation)
			r.Post("/accept", memberHandler.AcceptInvitation)
			r.Post("/decline", memberHandler.DeclineInvitation)
		})

		// Guarded routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens, cfg.Users))

			r.Get("/auth/me", authHandler.Me)
			r.Delete("/auth/me", authHandler.DeleteAccount)
			r.Post("/auth/verify-email", authHandler.SendVerifyEmail)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)

				r.Route("/{projectId}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Patch("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)
					r.Post("/transfer", projectHandler.Transfer)

					r.Route("/members", func(r chi.Router) {
						r.Get("/", memberHandler.List)
						r.Post("/", memberHandler.Add)
						r.Put("/{memberId}", memberHandler.UpdateRole)
						r.Delete("/{memberId}", memberHandler.Remove)
					})

					r.Post("/invitations", memberHandler.Invite)
				})
			})
		})
	})

	return &Router{r}
}

var _ http.Handler = (*Router)(nil)
