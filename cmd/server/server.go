package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/config"
	"github.com/mmynk/hangout/internal/httpapi"
	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/middleware"
	"github.com/mmynk/hangout/internal/notify"
	"github.com/mmynk/hangout/internal/service"
	"github.com/mmynk/hangout/internal/storage"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

// publicProcedures are callable without a session token.
var publicProcedures = []string{
	apiconnect.AuthServiceRegisterProcedure,
	apiconnect.AuthServiceLoginProcedure,
	apiconnect.BillServicePreviewSplitProcedure,
}

type routerDeps struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     storage.Store
	jwt       *auth.JWTManager
	google    *auth.GoogleProvider
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	announcer notify.Announcer
	tr        *notify.Translator
}

func newRouter(d routerDeps) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(d.logger))
	r.Use(chimw.Recoverer)
	if d.cfg.EnableCORS {
		r.Use(corsMiddleware)
	}

	opts := []service.Option{
		service.WithLocation(d.cfg.Location()),
		service.WithAnnouncer(d.announcer),
		service.WithMetrics(d.metrics),
		service.WithLogger(d.logger),
		service.WithTranslator(d.tr, d.cfg.Locale),
	}
	interceptors := rpcInterceptors(d.jwt, d.metrics, d.logger)

	events := service.NewEventService(d.store, opts...)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(d.store), d.jwt, d.store, d.logger)

	r.Mount(apiconnect.NewAuthServiceHandler(authService, interceptors))
	r.Mount(apiconnect.NewEventServiceHandler(events, interceptors))
	r.Mount(apiconnect.NewBillServiceHandler(service.NewBillService(d.store, opts...), interceptors))
	r.Mount(apiconnect.NewNotificationServiceHandler(service.NewNotificationService(d.store, opts...), interceptors))

	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))

	httpapi.New(httpapi.Options{
		Events:    events,
		Users:     d.store,
		JWT:       d.jwt,
		Google:    d.google,
		PublicURL: d.cfg.PublicURL,
		Logger:    d.logger,
	}).RegisterRoutes(r)

	static, err := staticHandler(d.cfg.StaticPath, d.logger)
	if err != nil {
		return nil, err
	}
	r.NotFound(static)
	return r, nil
}

// rpcInterceptors builds the chain shared by all services, outermost first.
// OptionalAuth attaches the caller to public procedures when a valid token
// is sent, so their logs carry a user ID too.
func rpcInterceptors(jwt *auth.JWTManager, m *metrics.Metrics, logger *slog.Logger) connect.HandlerOption {
	return connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.OptionalAuth(jwt),
		middleware.RequireAuth(jwt, publicProcedures...),
		middleware.LoggingInterceptor(logger),
	)
}

// staticHandler serves the frontend. Unknown paths fall back to index.html.
func staticHandler(staticPath string, logger *slog.Logger) (http.HandlerFunc, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Serving static files", "path", staticDir)

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/hangout.v1.") || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}, nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
