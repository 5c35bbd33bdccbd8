package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/ovenline/production-api/internal/handler"
	"github.com/ovenline/production-api/internal/intake"
	mw "github.com/ovenline/production-api/internal/middleware"
	"github.com/ovenline/production-api/internal/notify"
	"github.com/ovenline/production-api/internal/service"
	"github.com/ovenline/production-api/internal/ws"
	"go.uber.org/zap"
)

// Infra holds the long-lived clients the services are built on. Pool,
// Queries and Hub are required. Cache and Events may be nil; pricing then
// always reads the database, and events and chat notifications are dropped
// while staff pushes still reach the hub.
type Infra struct {
	Pool    *pgxpool.Pool
	Queries *database.Queries
	Hub     *ws.Hub
	Cache   service.PriceCache
	Events  service.EventPublisher
	Logger  *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, infra Infra) chi.Router {
	logger := infra.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := service.Deps{
		Pool: infra.Pool,
		NewStore: func(db database.DBTX) service.Store {
			return database.New(db)
		},
		Cache:    infra.Cache,
		Events:   infra.Events,
		Notifier: notify.NewDispatcher(infra.Events, infra.Hub, logger.Named("notify")),
		Config:   cfg.Production,
		Logger:   logger,
	}

	orderService := service.NewOrderService(deps)
	ticketService := service.NewTicketService(deps)
	pricingService := service.NewPricingService(deps)
	wasteService := service.NewWasteService(deps)
	chatIntake := intake.NewService(infra.Queries, orderService, cfg.Production.Location, logger.Named("intake"))

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(infra.Queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Staff assignment feed (handles auth internally via query param)
	r.Get("/ws/assignments", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(infra.Hub, cfg.JWTSecret, w, r)
	})

	// Chat gateway webhook, authenticated by shared token
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireWebhookToken(cfg.WebhookToken))
		handler.NewChatHandler(chatIntake).RegisterRoutes(r)
	})

	ticketHandler := handler.NewJobTicketHandler(ticketService)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/job-tickets", func(r chi.Router) {
			// Office routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleManager))
				ticketHandler.RegisterManagerRoutes(r)
			})

			// Floor routes; the service checks the step's role
			ticketHandler.RegisterStaffRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleManager))

			r.Route("/orders", handler.NewOrderHandler(orderService, cfg.Production.Location).RegisterRoutes)
			r.Route("/merchants/{mid}", handler.NewPricingHandler(pricingService, cfg.Production.Location).RegisterRoutes)
			r.Route("/waste", handler.NewWasteHandler(wasteService).RegisterRoutes)
			r.Route("/users", handler.NewUserHandler(infra.Queries).RegisterRoutes)
		})
	})

	logger.Info("router initialized")
	return r
}
