package http

import (
	"net/http"

	"github.com/yettensyvus/InternshipFinder/internal/application/auth"
	"github.com/yettensyvus/InternshipFinder/internal/application/notification"
	"github.com/yettensyvus/InternshipFinder/internal/application/user"
	jwtinfra "github.com/yettensyvus/InternshipFinder/internal/infrastructure/jwt"
)

// TokenVerifier is the minimal interface the router requires to resolve bearer tokens.
type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds the application services the router exposes.
type Deps struct {
	AuthService         auth.Service
	UserService         user.Service
	NotificationService notification.Service
	JWTProvider         TokenVerifier
	// MetricsHandler serves /metrics; nil disables the route.
	MetricsHandler http.Handler
}
