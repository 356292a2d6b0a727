package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/surveyapi/internal/metrics"
)

// Observe records request count and latency under the route's pattern, so
// /api/surveys/1/ and /api/surveys/2/ share a series. A panicking handler is
// counted as a 500 before the panic continues to Recover.
func Observe(m *metrics.Metrics, route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				v := recover()
				if v != nil {
					rec.status = http.StatusInternalServerError
				}
				m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
				m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
				if v != nil {
					panic(v)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
