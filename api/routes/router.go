package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streetcart/groupbuy-backend/api/controllers"
	ordercontrollers "github.com/streetcart/groupbuy-backend/api/controllers/orders"
	"github.com/streetcart/groupbuy-backend/api/middleware"
	"github.com/streetcart/groupbuy-backend/internal/auth"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	limiter rateLimiter,
	authService auth.Service,
	registerService auth.RegisterService,
	ordersCtrl lifecycle.Controller,
	engine ordercontrollers.ParticipationService,
	orderFeed ordercontrollers.Subscriber,
	router ordercontrollers.Router,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.StoreTimeout(cfg.Orders.StoreTimeout))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		// The stream outlives any store timeout.
		r.Get("/orders/stream", ordercontrollers.Stream(orderFeed, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.StoreTimeout(cfg.Orders.StoreTimeout))

			r.Get("/orders/{orderId}", ordercontrollers.Detail(ordersCtrl, logg))

			r.Route("/supplier", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleSupplier, logg))
				r.Get("/reviews", ordercontrollers.SupplierReviews(ordersCtrl, logg))
				r.Route("/orders", func(r chi.Router) {
					r.Post("/", ordercontrollers.SupplierCreate(ordersCtrl, logg))
					r.Get("/", ordercontrollers.SupplierList(ordersCtrl, logg))
					r.Put("/{orderId}", ordercontrollers.SupplierEdit(ordersCtrl, logg))
					r.Delete("/{orderId}", ordercontrollers.Delete(ordersCtrl, logg))
					r.Post("/{orderId}/accept", ordercontrollers.SupplierTransition(ordersCtrl.Accept, logg))
					r.Post("/{orderId}/process-early", ordercontrollers.SupplierTransition(ordersCtrl.ProcessEarly, logg))
					r.Post("/{orderId}/complete", ordercontrollers.SupplierTransition(ordersCtrl.Complete, logg))
					r.Post("/{orderId}/cancel", ordercontrollers.SupplierTransition(ordersCtrl.Cancel, logg))
				})
			})

			r.Route("/vendor", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleVendor, logg))
				r.Get("/participations", ordercontrollers.VendorParticipations(ordersCtrl, logg))
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", ordercontrollers.VendorBrowse(ordersCtrl, logg))
					r.Delete("/{orderId}", ordercontrollers.Delete(ordersCtrl, logg))
					r.Post("/{orderId}/join", ordercontrollers.VendorJoin(engine, logg))
					r.Patch("/{orderId}/participation", ordercontrollers.VendorUpdate(engine, logg))
					r.Delete("/{orderId}/participation", ordercontrollers.VendorLeave(engine, logg))
					r.Post("/{orderId}/review", ordercontrollers.VendorReview(ordersCtrl, logg))
					r.Get("/{orderId}/route", ordercontrollers.VendorRoute(ordersCtrl, router, logg))
				})
			})
		})
	})

	return r
}
