package drivehttp

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// tokenPredicate возвращает предикат сравнения с настроенным токеном.
// Пустой токен в конфигурации отключает аутентификацию (dev-режим).
func tokenPredicate(configured string) func(string) bool {
	if configured == "" {
		return func(string) bool { return true }
	}

	return func(token string) bool {
		return subtle.ConstantTimeCompare([]byte(token), []byte(configured)) == 1
	}
}

// requireAuth требует Authorization: Bearer <token> на рабочих эндпоинтах.
// Ответ 401 намеренно не раскрывает причину отказа.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearer(r)
		if !ok || !s.Authorize(token) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// testToken позволяет клиенту проверить токен до начала загрузки; сам
// эндпоинт мидлварью не закрыт, иначе без токена его не вызвать.
func (s *Server) testToken(w http.ResponseWriter, r *http.Request) {
	token, ok := extractBearer(r)
	valid := ok && s.Authorize(token)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"valid": valid})
}

func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}
