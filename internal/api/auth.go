package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"otasync/internal/api/response"
	"otasync/internal/failure"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleManagement   Role = "management"
	RoleReservations Role = "reservations"
)

type contextKey string

const roleKey contextKey = "role"

var ErrInvalidPassword = errors.New("invalid password")

// HashPassword returns the bcrypt hash stored in the role configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(b), nil
}

// VerifyPassword checks password against a bcrypt hash.
func VerifyPassword(password, hash string) error {
	if password == "" || hash == "" {
		return ErrInvalidPassword
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}

	return nil
}

// RoleFrom returns the role the request authenticated as.
func RoleFrom(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleKey).(Role)
	return role, ok
}

// Auth checks HTTP basic credentials. The user name is the role; a role without a hash cannot log in.
type Auth struct {
	hashes map[Role]string
	otel   telemetry.Otel
}

func NewAuth(hashes map[Role]string, otl telemetry.Otel) *Auth {
	return &Auth{hashes: hashes, otel: otl}
}

func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := a.otel.NewScope(request.Context(), telemetry.ScopeHandler, "auth.middleware")
		defer scope.End()

		user, password, ok := request.BasicAuth()
		if !ok {
			writer.Header().Set("WWW-Authenticate", `Basic realm="otasync"`)
			response.WithError(writer, failure.Unauthorized("Missing authorization header"))

			return
		}

		role := Role(user)
		if err := VerifyPassword(password, a.hashes[role]); err != nil {
			scope.TraceError(err)
			log.Warn().Str("role", user).Str("path", request.URL.Path).Msg("rejected credentials")

			writer.Header().Set("WWW-Authenticate", `Basic realm="otasync"`)
			response.WithError(writer, failure.Unauthorized("Invalid role or password"))

			return
		}

		scope.SetAttribute("auth.role", string(role))

		next.ServeHTTP(writer, request.WithContext(context.WithValue(ctx, roleKey, role)))
	})
}

// Require lets through only the given roles.
func Require(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			role, _ := RoleFrom(request.Context())
			for _, r := range roles {
				if r == role {
					next.ServeHTTP(writer, request)
					return
				}
			}

			response.WithError(writer, failure.ForbiddenError)
		})
	}
}
