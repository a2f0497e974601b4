package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"watermelon-stand/internal/config"
	"watermelon-stand/internal/live"
	custommiddleware "watermelon-stand/internal/middleware"
	"watermelon-stand/internal/repository"
	"watermelon-stand/internal/service"
	"watermelon-stand/internal/session"
	"watermelon-stand/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	rdb    *redis.Client

	sessions     *session.Manager
	productsFeed *live.Feed
	ordersFeed   *live.Feed
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, rdb *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Change propagation: repository writes publish on Redis, feeds reload
	// and push fresh snapshots to connected clients
	publisher := live.NewPublisher(rdb, cfg.App.ID, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(db, cfg.App.ID, publisher)
	orderRepo := repository.NewOrderRepository(db, cfg.App.ID, publisher)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, logger)

	productsFeed := live.NewFeed(rdb, cfg.App.ID, repository.CollectionProducts, func(ctx context.Context) (json.RawMessage, error) {
		products, err := catalogService.List(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(products)
	}, logger)

	ordersFeed := live.NewFeed(rdb, cfg.App.ID, repository.CollectionOrders, func(ctx context.Context) (json.RawMessage, error) {
		orders, err := orderService.List(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(orders)
	}, logger)

	// Session layer: every caller gets an identity, anonymous or operator
	tokens := session.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.SessionTTLMins)*time.Minute)
	sessions := session.NewManager(tokens, cfg.Auth.OperatorUID, logger)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, productsFeed, logger)
	cartHandler := transport.NewCartHandler(catalogService, orderService, logger)
	sessionHandler := transport.NewSessionHandler(logger)
	adminHandler := transport.NewAdminHandler(catalogService, orderService, ordersFeed, logger)

	// Everything under /api runs behind the identity gate
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.IdentityGate(sessions, logger))
		r.Use(custommiddleware.RateLimitMiddleware(rdb, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 120,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit",
		}, logger))

		catalogHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r)
		sessionHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, custommiddleware.RequireOperator(logger))
	})

	server := &Server{
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:     router,
			IdleTimeout: time.Minute,
			ReadTimeout: 10 * time.Second,
			// No write timeout: the snapshot streams hold their
			// connections open indefinitely.
		},
		config:       cfg,
		logger:       logger,
		db:           db,
		rdb:          rdb,
		sessions:     sessions,
		productsFeed: productsFeed,
		ordersFeed:   ordersFeed,
	}

	return server
}

// StartBackground launches the snapshot feeds and the idle-session sweeper.
// They stop when ctx is cancelled.
func (s *Server) StartBackground(ctx context.Context) {
	go s.productsFeed.Run(ctx)
	go s.ordersFeed.Run(ctx)
	go s.sessions.Sweep(ctx, time.Duration(s.config.Auth.SessionTTLMins)*time.Minute)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
