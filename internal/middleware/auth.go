package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/Dan9191/recipe-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid token and stores the
// authenticated user in the request context
func AuthMiddleware(auth Authenticator, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthorized) {
					log.Errorf("Authentication failed: %v", err)
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithUser(r.Context(), user)))
		})
	}
}

// bearerToken accepts "Bearer <token>" and "Token <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
