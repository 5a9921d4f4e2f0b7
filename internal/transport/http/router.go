package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yettensyvus/InternshipFinder/internal/config"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
	"github.com/yettensyvus/InternshipFinder/internal/transport/http/handler"
	appmiddleware "github.com/yettensyvus/InternshipFinder/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. The returned limiter
// must be closed on shutdown.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, *appmiddleware.RateLimiter) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	otpRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.OtpRateLimit), cfg.OtpRateBurst)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.AuthService)
	settingsH := handler.NewSettingsHandler(deps.AuthService)
	notifH := handler.NewNotificationHandler(deps.NotificationService)
	userH := handler.NewUserHandler(deps.UserService)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(otpRL.Limit)

			r.Post("/auth/request-otp", authH.RequestOtp)
			r.Post("/auth/verify-otp", authH.VerifyOtp)
			r.Post("/auth/reset-password-otp", authH.ResetPassword)
			r.Post("/auth/verify-email-otp", authH.VerifyEmailOtp)
			r.Post("/auth/resend-email-otp", authH.ResendEmailOtp)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/settings/request-email-change", settingsH.RequestEmailChange)
			r.Post("/settings/confirm-email-change", settingsH.ConfirmEmailChange)
			r.Post("/settings/request-password-change", settingsH.RequestPasswordChange)
			r.Post("/settings/confirm-password-change", settingsH.ConfirmPasswordChange)

			r.Get("/notifications", notifH.List)
			r.Post("/notifications", notifH.Create)
			r.Delete("/notifications", notifH.ClearAll)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Put("/admin/users/{id}/enabled", userH.SetEnabled)
				r.Delete("/admin/users/{id}", userH.Delete)
			})
		})
	})

	return r, otpRL
}
