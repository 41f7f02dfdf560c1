package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/patryk-bejcer/photobook/internal/domain"
	"github.com/patryk-bejcer/photobook/internal/service/auth"
	jwtpkg "github.com/patryk-bejcer/photobook/pkg/jwt"
)

type authContextKey string

type authInfo struct {
	User   *domain.User
	Claims *jwtpkg.Claims
}

const contextKeyAuth authContextKey = "photobook-auth-info"

const msgUnauthenticated = "Unauthenticated."

// requireAuth ensures the request has a valid bearer token before invoking
// the handler. Token and store problems are kept apart: the former is a 401,
// the latter a 500.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		user, claims, err := r.auth.Authorize(req.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, msgUnauthenticated)
				return
			}
			r.logger.Error("authorization check failed", "error", err, "path", req.URL.Path)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		ctx := context.WithValue(req.Context(), contextKeyAuth, authInfo{User: user, Claims: claims})
		next(w, req.WithContext(ctx))
	}
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
