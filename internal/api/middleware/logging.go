package middleware

import (
	"net/http"
	"time"

	"bracket/pkg/utils"
)

// statusRecorder запоминает код ответа для лога
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging пишет структурированную запись на каждый запрос
func Logging(logger *utils.Logger) func(http.Handler) http.Handler {
	log := logger.WithComponent("api")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				utils.String("method", r.Method),
				utils.String("path", r.URL.Path),
				utils.Int("status", rec.status),
				utils.Latency(float64(time.Since(start).Milliseconds())),
				utils.String("remote", r.RemoteAddr))
		})
	}
}
