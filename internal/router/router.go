package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mesafacil/api/internal/config"
	"github.com/mesafacil/api/internal/database"
	"github.com/mesafacil/api/internal/handler"
	mw "github.com/mesafacil/api/internal/middleware"
	"github.com/mesafacil/api/internal/notify"
	"github.com/mesafacil/api/internal/payment/mercadopago"
	"github.com/mesafacil/api/internal/payment/stripe"
	"github.com/mesafacil/api/internal/service"
	"github.com/mesafacil/api/internal/session"
	"github.com/mesafacil/api/internal/ws"
)

// New creates a Chi router with all checkout routes wired up.
func New(
	cfg *config.Config,
	queries *database.Queries,
	pool *pgxpool.Pool,
	sessions *session.Store,
	hub *ws.Hub,
	notifier notify.Publisher,
) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
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
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/checkout/{sid}/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Payment plumbing shared by the protected routes
	mpLoader := mercadopago.NewLoader(cfg.MPSDKURL)
	mpClient := mercadopago.NewClient(cfg.PaymentsAPIBase)
	mpAdapter := mercadopago.NewAdapter(mpLoader, mpClient, cfg.MPPublicKey, cfg.MPLocale)
	stripeClient := stripe.NewClient(cfg.PaymentsAPIBase)

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	checkoutService := service.NewCheckoutService(sessions, orderService, queries, stripeClient, notifier, hub)

	r.Route("/checkout", func(r chi.Router) {
		// Session issuance (public; guarded by the table secret)
		sessionHandler := handler.NewSessionHandler(sessions, cfg.JWTSecret, cfg.TableSecretHash)
		r.Route("/sessions", sessionHandler.RegisterRoutes)

		// Everything else requires a guest session token
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			checkoutHandler := handler.NewCheckoutHandler(checkoutService)
			checkoutHandler.RegisterRoutes(r)

			preferenceHandler := handler.NewPreferenceHandler(sessions)
			r.Route("/preferences", preferenceHandler.RegisterRoutes)

			paymentHandler := handler.NewPaymentHandler(sessions, mpAdapter, checkoutService)
			r.Route("/payment", paymentHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
