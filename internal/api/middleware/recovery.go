// Package middleware содержит HTTP middleware сервера
package middleware

import (
	"net/http"
	"runtime/debug"

	"bracket/pkg/utils"
)

// Recovery перехватывает панику хендлера и отвечает 500
// вместо падения всего процесса
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in handler",
						utils.String("path", r.URL.Path),
						utils.Any("panic", rec),
						utils.String("stack", string(debug.Stack())))
					http.Error(w, `{"code":500,"msg":"internal server error"}`, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
