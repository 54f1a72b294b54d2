package router

import (
	"net/http"
	"time"

	"classifieds/internal/delivery/handler"
	"classifieds/internal/delivery/schema"
	"classifieds/internal/infrastructure/metrics"
	"classifieds/internal/service"
	"classifieds/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRouter returns a mux with the common middleware and a health probe.
func NewRouter(loggers *logger.Loggers, allowedOrigins []string, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(loggers), middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", handler.UserIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

func SetupAdRoutes(r chi.Router, adService service.AdService, schemas *schema.Validator, loggers *logger.Loggers, metrics *metrics.HandlerMetrics) {
	adHandler := handler.NewAdHandler(adService, schemas, loggers, metrics)

	r.Get("/items", adHandler.GetAllAds)
	r.Post("/items", adHandler.CreateAd)
	r.Get("/items/user/{userId}", adHandler.GetAdsByOwner)
	r.Get("/items/{id}", adHandler.GetAdByID)
	r.Put("/items/{id}", adHandler.UpdateAd)
	r.Delete("/items/{id}", adHandler.DeleteAd)
}

func SetupUserRoutes(r chi.Router, userService service.UserService, loggers *logger.Loggers, metrics *metrics.HandlerMetrics) {
	userHandler := handler.NewUserHandler(userService, loggers, metrics)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/check-user", userHandler.CheckUser)

		r.Get("/", userHandler.GetAllUsers)
		r.Get("/{id}", userHandler.GetUserByID)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})
}

func SetupMetricsRoute(r chi.Router, gatherer prometheus.Gatherer) {
	r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(gatherer))
}

func requestLogger(loggers *logger.Loggers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r)

			loggers.DebugLogger.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(started),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
