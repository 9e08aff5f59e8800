package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sheger-pos/api/internal/config"
	"github.com/sheger-pos/api/internal/database"
	"github.com/sheger-pos/api/internal/enum"
	"github.com/sheger-pos/api/internal/handler"
	mw "github.com/sheger-pos/api/internal/middleware"
	"github.com/sheger-pos/api/internal/pos"
	"github.com/sheger-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, reg *pos.Register, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // dashboard dev server
			"https://pos.sheger.restaurant",
			"https://kitchen.sheger.restaurant",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Menu browsing is open to every staff role
		menuHandler := handler.NewMenuHandler(queries)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterReadRoutes(r)

			// Menu management is admin only
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				menuHandler.RegisterAdminRoutes(r)
			})
		})

		orderHandler := handler.NewOrderHandler(reg, queries, hub)
		r.Route("/orders", func(r chi.Router) {
			// Cashier order flow
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleAdmin))
				orderHandler.RegisterRoutes(r)

				// Payments (nested under orders)
				paymentHandler := handler.NewPaymentHandler(reg, queries, hub)
				r.Route("/{id}/payment", paymentHandler.RegisterRoutes)
			})

			// Status transitions: chefs bump orders from the kitchen display
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleChef, enum.UserRoleAdmin))
				orderHandler.RegisterStatusRoutes(r)
			})
		})

		// Pager board
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleAdmin))
			pagerHandler := handler.NewPagerHandler(reg)
			r.Route("/pagers", pagerHandler.RegisterRoutes)
		})

		// Kitchen queue
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleChef, enum.UserRoleAdmin))
			kitchenHandler := handler.NewKitchenHandler(reg)
			r.Route("/kitchen", kitchenHandler.RegisterRoutes)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(queries)
			r.Route("/reports", reportsHandler.RegisterRoutes)

			r.Delete("/session", orderHandler.ResetSession)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
