package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/patryk-bejcer/photobook/internal/domain"
	"github.com/patryk-bejcer/photobook/internal/service/auth"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// userJSON shapes a user for API responses. The password hash never leaves
// the service.
func userJSON(u *domain.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// tokenJSON shapes an issued token the way the login and refresh endpoints
// return it, with expires_in in whole seconds.
func tokenJSON(token auth.Token, u *domain.User) map[string]any {
	return map[string]any{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   int64(token.ExpiresIn.Seconds()),
		"user":         userJSON(u),
	}
}
