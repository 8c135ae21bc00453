package middleware

import (
	"net/http"
	"strings"

	"bracket/pkg/crypto"
	"bracket/pkg/utils"
)

// Auth проверяет Bearer-токен против bcrypt-хеша из конфигурации.
// Пустой хеш отключает проверку (локальная разработка)
func Auth(tokenHash string, logger *utils.Logger) func(http.Handler) http.Handler {
	log := logger.WithComponent("auth")
	return func(next http.Handler) http.Handler {
		if tokenHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || !crypto.CheckTokenMatch(token, tokenHash) {
				log.Warn("unauthorized request",
					utils.String("path", r.URL.Path),
					utils.String("remote", r.RemoteAddr))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"code":401,"msg":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
