package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dice-gateway/bape/api/controllers"
	"github.com/dice-gateway/bape/api/middleware"
	"github.com/dice-gateway/bape/internal/auth"
	checkoutsvc "github.com/dice-gateway/bape/internal/checkout"
	"github.com/dice-gateway/bape/internal/intents"
	"github.com/dice-gateway/bape/pkg/auth/session"
	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/db"
	"github.com/dice-gateway/bape/pkg/logger"
	"github.com/dice-gateway/bape/pkg/redis"
)

// RouterParams bundles the dependencies wired into the HTTP surface.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Sessions session.Checker
	Auth     auth.Service
	Intents  intents.Service
	Checkout checkoutsvc.Service
	Gatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Get("/{intentID}", controllers.CheckoutBegin(p.Checkout, logg))
		r.Post("/{intentID}/pay", controllers.CheckoutPay(p.Checkout, logg))
		r.Get("/{intentID}/status", controllers.CheckoutStatus(p.Checkout, logg))
	})

	r.Route("/api/v1/intents", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Post("/", controllers.CreateIntent(p.Intents, cfg, logg))
		r.Get("/", controllers.ListIntents(p.Intents, cfg, logg))
		r.Get("/{intentID}", controllers.GetIntent(p.Intents, cfg, logg))
		r.Delete("/{intentID}", controllers.DeleteIntent(p.Intents, logg))
	})

	return r
}
