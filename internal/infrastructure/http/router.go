package httpserver

import (
	"context"
	"net/http"
	"time"

	"marketmaker-bot/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type ctxKey struct{}

const requestIDHeader = "X-Request-ID"

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(observe(logx.Named("http")))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.ping != nil {
			if err := s.ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	r.Get("/", s.Index)
	r.Get("/portfolio", s.GetPortfolio)
	r.Get("/portfolio/chart.svg", s.GetPortfolioChart)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(r)
}

// RequestID returns the id observe attached to the request context.
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKey{}).(string)
	return rid
}

type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(b)
	m.bytes += n
	return n, err
}

// observe tags each request with an id, turns handler panics into a JSON 500
// and logs one line per request keyed by the matched chi route.
func observe(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, rid)
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, rid))

			start := time.Now()
			m := &responseMeter{ResponseWriter: w}
			defer func() {
				fields := []zap.Field{
					zap.String("request_id", rid),
					zap.String("method", r.Method),
					zap.String("route", routePattern(r)),
					zap.Duration("duration", time.Since(start)),
				}
				if tf := r.URL.Query().Get("timeframe"); tf != "" {
					fields = append(fields, zap.String("timeframe", tf))
				}
				if rec := recover(); rec != nil {
					if m.status == 0 {
						writeError(m, http.StatusInternalServerError, "internal error")
					}
					log.Error("http.panic", append(fields, zap.Any("panic", rec))...)
					return
				}
				log.Info("http.request", append(fields, zap.Int("status", m.status), zap.Int("bytes", m.bytes))...)
			}()
			next.ServeHTTP(m, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
