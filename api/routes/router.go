package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selliohq/cart-backend/api/controllers"
	cartcontrollers "github.com/selliohq/cart-backend/api/controllers/cart"
	"github.com/selliohq/cart-backend/api/middleware"
	"github.com/selliohq/cart-backend/internal/cart"
	"github.com/selliohq/cart-backend/pkg/config"
	"github.com/selliohq/cart-backend/pkg/db"
	"github.com/selliohq/cart-backend/pkg/logger"
	"github.com/selliohq/cart-backend/pkg/metrics"
	"github.com/selliohq/cart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	writePolicy := middleware.NewWriteRateLimitPolicy(
		"cart",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.WriteRateLimit(writePolicy, redisClient, logg))
		}

		r.Route("/cart", func(r chi.Router) {
			r.Get("/active", cartcontrollers.ActiveCartFetch(cartService, cfg.Cookie, logg))
			r.Post("/upsert", cartcontrollers.CartUpsert(cartService, cfg.Cookie, logg))
			r.Post("/add-item", cartcontrollers.CartAddItem(cartService, cfg.Cookie, logg))

			r.Route("/{cartID}", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(cartService, logg))
				r.Put("/status", cartcontrollers.CartStatusUpdate(cartService, logg))
				r.Post("/item", cartcontrollers.CartItemUpsert(cartService, logg))
				r.Put("/item/{productID}/quantity", cartcontrollers.CartItemQuantityUpdate(cartService, logg))
				r.Delete("/item/{productID}", cartcontrollers.CartItemRemove(cartService, logg))
			})
		})

		r.Route("/carts", func(r chi.Router) {
			r.Get("/by-user", cartcontrollers.CartsByUser(cartService, logg))
			r.Post("/by-ids", cartcontrollers.CartsByIDs(cartService, logg))
		})
	})

	return r
}
