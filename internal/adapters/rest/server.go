package rest

import (
	"context"
	"fmt"
	"net/http"
	core_port "storefront-service/internal/core/port"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server - REST API витрины.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewRouter собирает роутер со всеми маршрутами. Вынесен отдельно, чтобы его можно было
// поднять в httptest без реального порта.
func NewRouter(handlers *StorefrontHandler, baseLogger core_port.LoggerPort, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300, // 5 минут
	}))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.With(OptionalAuthMiddleware).Post("/sessions", handlers.CreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(handlers.SessionMiddleware)

			r.Delete("/", handlers.CloseSession)

			r.Get("/filters", handlers.GetFilters)
			r.Delete("/filters", handlers.ClearFilters)
			r.Post("/filters/toggle", handlers.ToggleFilter)
			r.Put("/filters/price", handlers.SetPriceRange)
			r.Delete("/filters/{filterID}", handlers.RemoveFilter)

			r.Put("/search", handlers.SetSearch)
			r.Put("/category", handlers.SetCategory)

			r.Get("/products", handlers.GetProducts)
			r.Post("/products/fetch", handlers.FetchProducts)

			r.Get("/reviews", handlers.GetReviews)
			r.Post("/reviews/load", handlers.LoadReviews)
			r.Delete("/reviews/error", handlers.DismissReviewsError)
			r.Patch("/reviews/{reviewID}/approval", handlers.SetReviewApproval)
			r.Delete("/reviews/{reviewID}", handlers.DeleteReview)
			r.Post("/reviews/{reviewID}/response", handlers.RespondToReview)
		})

		r.Post("/visits", handlers.RecordVisit)

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(AuthMiddleware)

			r.Get("/", handlers.GetWishlist)
			r.Post("/", handlers.AddToWishlist)
			r.Delete("/{productID}", handlers.RemoveFromWishlist)
		})
	})

	return r
}

// NewServer создает новый экземпляр сервера.
func NewServer(port string, handlers *StorefrontHandler, baseLogger core_port.LoggerPort, allowedOrigins []string) *Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(handlers, baseLogger, allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(core_port.Fields{"component": "rest_server"}),
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
