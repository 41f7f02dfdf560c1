package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/patryk-bejcer/photobook/internal/repository"
	"github.com/patryk-bejcer/photobook/internal/service/auth"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	dbHealth func(context.Context) error
}

const (
	healthCheckTimeout = 2 * time.Second

	msgRegistered         = "User successfully registered"
	msgSignedOut          = "User successfully signed out"
	msgWrongCredentials   = "Sorry, wrong email address or password. Please try again"
	msgEmailAlreadyTaken  = "The email has already been taken."
	msgInternalError      = "internal server error"
	msgInvalidRequestBody = "invalid JSON body"
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		dbHealth: dbHealth,
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.handleHealthz)
	r.mux.HandleFunc("/api/auth/register", r.handleRegister)
	r.mux.HandleFunc("/api/auth/login", r.handleLogin)
	r.mux.HandleFunc("/api/auth/logout", r.requireAuth(r.handleLogout))
	r.mux.HandleFunc("/api/auth/refresh", r.handleRefresh)
	r.mux.HandleFunc("/api/auth/user-profile", r.requireAuth(r.handleUserProfile))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	user, err := r.auth.Register(req.Context(), payload.Name, payload.Email, payload.Password, payload.PasswordConfirmation)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, ve.Fields)
		case errors.Is(err, repository.ErrDuplicateEmail):
			writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {msgEmailAlreadyTaken}})
		default:
			r.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": msgRegistered,
		"user":    userJSON(user),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	user, token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusUnprocessableEntity, ve.Fields)
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, msgWrongCredentials)
		default:
			r.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}
	writeJSON(w, http.StatusOK, tokenJSON(token, user))
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}
	if err := r.auth.Logout(req.Context(), info.Claims); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		r.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msgSignedOut})
}

// handleRefresh does its own token extraction instead of using requireAuth:
// a token expired within the grace window must still be accepted here even
// though it would fail normal authorization.
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}
	user, fresh, err := r.auth.Refresh(req.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		r.logger.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	writeJSON(w, http.StatusOK, tokenJSON(fresh, user))
}

func (r *Router) handleUserProfile(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(info.User))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
