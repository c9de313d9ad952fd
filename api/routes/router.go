package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gasdrop-backend/api/controllers"
	"github.com/angelmondragon/gasdrop-backend/api/middleware"
	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	"github.com/angelmondragon/gasdrop-backend/internal/auth"
	"github.com/angelmondragon/gasdrop-backend/internal/cart"
	"github.com/angelmondragon/gasdrop-backend/internal/checkout"
	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/gasdrop-backend/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer uses for rate limits,
// idempotency records and in-flight guards.
type RedisStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiter
	InFlightKey(userID, method, path string) string
	Ping(ctx context.Context) error
}

// Dependencies bundles everything the router hands to middleware and
// controllers. Redis and Registry may be nil in tests.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions middleware.SessionLoader
	Registry *prometheus.Registry
	HTTP     middleware.HTTPObserver

	Auth     auth.Service
	Products product.Service
	Users    users.Service
	Agents   agents.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// Typed-nil Redis would defeat the nil checks inside each middleware.
	var (
		limiter    middleware.RateLimiter
		idempotent pkgredis.IdempotencyStore
		inflight   middleware.InFlightStore
		redisPing  controllers.Pinger
	)
	if deps.Redis != nil {
		limiter, idempotent, inflight, redisPing = deps.Redis, deps.Redis, deps.Redis, deps.Redis
	}
	if !cfg.FeatureFlags.InFlightGuard {
		inflight = nil
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": redisPing,
		}, logg))
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	// Guards only the writes a double tap can duplicate; reads never lock.
	guard := middleware.InFlight(inflight, cfg.Sessions.InFlightTTL, logg)
	idempotency := middleware.Idempotency(idempotent, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/federated", controllers.AuthFederated(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/session", controllers.SessionCurrent(logg))
			r.Post("/session/authorize", controllers.SessionAuthorize(logg))
			r.Get("/me", controllers.MeGet(deps.Users, logg))
			r.Patch("/me", controllers.MeUpdate(deps.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireArea(sessions.Requirement{Area: sessions.AreaCustomer}, logg))
				r.Use(idempotency)

				r.Get("/cart", controllers.CartGet(deps.Cart, logg))
				r.Post("/cart/quote", controllers.CartQuote(deps.Cart, logg))
				r.With(guard).Delete("/cart", controllers.CartClear(deps.Cart, logg))
				r.With(guard).Post("/cart/lines", controllers.CartAddLine(deps.Cart, logg))
				r.With(guard).Patch("/cart/lines/{lineId}", controllers.CartSetQuantity(deps.Cart, logg))
				r.With(guard).Delete("/cart/lines/{lineId}", controllers.CartRemoveLine(deps.Cart, logg))
				r.With(guard).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
				r.Get("/orders", controllers.CustomerOrders(deps.Orders, logg))
				r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})

			r.Route("/agent", func(r chi.Router) {
				r.Use(middleware.RequireArea(sessions.Requirement{Area: sessions.AreaDelivery}, logg))
				r.Use(idempotency)

				r.Get("/profile", controllers.AgentProfile(deps.Agents, logg))
				r.Get("/orders", controllers.AgentOrders(deps.Orders, logg))
				r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))
				r.With(guard).Post("/orders/{orderId}/advance", controllers.AgentAdvanceOrder(deps.Orders, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(idempotency)
				adminArea := func(capability enums.Permission) func(http.Handler) http.Handler {
					return middleware.RequireArea(sessions.Requirement{Area: sessions.AreaAdmin, Capability: capability}, logg)
				}

				r.With(adminArea(enums.PermissionDashboard)).Get("/dashboard", controllers.AdminDashboard(deps.Orders, logg))

				r.Route("/orders", func(r chi.Router) {
					r.Use(adminArea(enums.PermissionOrders))
					r.Get("/", controllers.AdminOrders(deps.Orders, logg))
					r.With(guard).Post("/bulk-assign", controllers.AdminBulkAssign(deps.Orders, logg))
					r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
					r.With(guard).Post("/{orderId}/assign", controllers.AdminAssignOrder(deps.Orders, logg))
				})

				r.Route("/products", func(r chi.Router) {
					r.Use(adminArea(enums.PermissionProducts))
					r.Get("/", controllers.ProductList(deps.Products, logg))
					r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
					r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
					r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
					r.Patch("/{productId}/stock", controllers.AdminSetStock(deps.Products, logg))
				})

				r.Route("/agents", func(r chi.Router) {
					r.Use(adminArea(enums.PermissionDelivery))
					r.Get("/", controllers.AdminListAgents(deps.Agents, logg))
					r.Post("/", controllers.AdminProvisionAgent(deps.Agents, logg))
					r.Get("/{agentUid}", controllers.AdminGetAgent(deps.Agents, logg))
					r.Patch("/{agentUid}", controllers.AdminUpdateAgent(deps.Agents, logg))
					r.Patch("/{agentUid}/active", controllers.AdminSetAgentActive(deps.Agents, logg))
					r.Patch("/{agentUid}/stats", controllers.AdminUpdateAgentStats(deps.Agents, logg))
				})

				r.Route("/subadmins", func(r chi.Router) {
					r.Use(middleware.RequireArea(sessions.Requirement{Area: sessions.AreaAdmin, AdminOnly: true}, logg))
					r.Get("/", controllers.AdminListSubAdmins(deps.Users, logg))
					r.Post("/", controllers.AdminPromoteSubAdmin(deps.Users, logg))
					r.Put("/{uid}/permissions", controllers.AdminSetPermissions(deps.Users, logg))
					r.Delete("/{uid}", controllers.AdminDemoteSubAdmin(deps.Users, logg))
				})
			})
		})
	})

	return r
}

// NewServer wraps the router with the API's timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
