package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/inkstone9/quillpad/internal/auth"
	"github.com/inkstone9/quillpad/internal/cache"
	"github.com/inkstone9/quillpad/internal/config"
	"github.com/inkstone9/quillpad/internal/http/handlers"
	"github.com/inkstone9/quillpad/internal/http/middlewares"
	"github.com/inkstone9/quillpad/internal/observability"
	"github.com/inkstone9/quillpad/internal/repo/postgres"
	"github.com/inkstone9/quillpad/internal/security"
)

const (
	listCacheTTL = 5 * time.Second
	maxBodySize  = 1 << 20 // requests larger than 1 MiB are rejected
)

// NewRouter wires the Postgres-backed engine used in production.
func NewRouter(pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	usersRepo := postgres.NewUsersRepo(pool, prom)
	postsRepo := postgres.NewPostsRepo(pool, prom)

	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}

		return pool.Ping(ctx)
	}

	return newRouter(cfg, usersRepo, postsRepo, ping, reg, prom)
}

// NewRouterWithStores builds an engine over any store implementations. The
// memory-backed mode and the integration tests come through here.
func NewRouterWithStores(cfg config.Config, users handlers.UserStore, posts handlers.PostStore, ping handlers.PingFunc) *gin.Engine {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	return newRouter(cfg, users, posts, ping, reg, prom)
}

func newRouter(
	cfg config.Config,
	users handlers.UserStore,
	posts handlers.PostStore,
	ping handlers.PingFunc,
	reg *prometheus.Registry,
	prom *observability.Prom,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())

	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware("quillpad"))
	}

	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodySize))
	r.Use(prom.GinHandleMiddleware())

	// operational surface
	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up handlers
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	authHandler := handlers.NewAuthHandler(users, tokens, hasher)
	postsHandler := handlers.NewPostsHandlerWithCache(posts, cache.New(listCacheTTL))

	authMw := middlewares.NewAuthMiddleware(tokens)

	// public routes: reading posts needs no account
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.GET("/posts", postsHandler.ListPosts)
	r.GET("/posts/:id", postsHandler.GetPost)

	// everything below carries a bearer token
	protected := r.Group("/")
	protected.Use(authMw.RequireAuth())

	protected.GET("/auth/profile", authHandler.Profile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	protected.POST("/posts", postsHandler.CreatePost)
	protected.GET("/posts/my", postsHandler.MyPosts)
	protected.PUT("/posts/:id", postsHandler.UpdatePost)
	protected.DELETE("/posts/:id", postsHandler.DeletePost)

	return r
}
