package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/boardhub/internal/auth"
	"github.com/geocoder89/boardhub/internal/config"
	"github.com/geocoder89/boardhub/internal/http/handlers"
	"github.com/geocoder89/boardhub/internal/http/middlewares"
	"github.com/geocoder89/boardhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router wires together. Stores arrive as the
// handler-side interfaces so memory and postgres backends are interchangeable.
type Deps struct {
	Cfg config.Config
	Log *slog.Logger

	Users       handlers.UserStore
	Orgs        handlers.OrgStore
	Memberships handlers.MembershipStore
	Guard       handlers.Authorizer
	Audit       handlers.Auditor

	JWT *auth.Manager

	Prom     *observability.Prom
	Registry *prometheus.Registry

	Health map[string]handlers.Pinger

	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("boardhub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health + metrics

	health := handlers.NewHealthHandler(d.Health)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// auth surface, rate limited by client IP

	authLimiter := middlewares.NewRateLimiter(10, time.Minute)
	authHandler := handlers.NewAuthHandler(d.Users, d.JWT)

	authGroup := r.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)

	// everything below requires an authenticated caller

	authMw := middlewares.NewAuthMiddleware(d.JWT)
	writeLimiter := middlewares.NewRateLimiter(120, time.Minute)

	api := r.Group("/")
	api.Use(authMw.RequireAuth())
	api.Use(writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	meHandler := handlers.NewMeHandler(d.Users, d.Memberships, d.Orgs)
	usersHandler := handlers.NewUsersHandler(d.Users, d.Audit)
	orgsHandler := handlers.NewOrgsHandler(d.Orgs, d.Memberships, d.Guard, d.Audit)
	boardsHandler := handlers.NewBoardsHandler(d.Orgs, d.Guard, d.Audit)
	ticketsHandler := handlers.NewTicketsHandler(d.Orgs, d.Guard, d.Audit)
	membershipsHandler := handlers.NewMembershipsHandler(d.Memberships, d.Guard, d.Audit)

	api.GET("/me", meHandler.Me)
	api.POST("/users", usersHandler.Create)

	api.POST("/organisations", orgsHandler.Create)
	api.PATCH("/organisations/:orgId", orgsHandler.Update)
	api.GET("/organisations/:orgId", orgsHandler.Get)

	api.PUT("/organisations/:orgId/boards", boardsHandler.Put)
	api.GET("/organisations/:orgId/boards/:boardId", boardsHandler.Get)
	api.DELETE("/organisations/:orgId/boards/:boardId", boardsHandler.Delete)

	api.PUT("/organisations/:orgId/boards/:boardId/tickets", ticketsHandler.Put)
	api.GET("/organisations/:orgId/tickets/:ticketId", ticketsHandler.Get)
	api.DELETE("/organisations/:orgId/tickets/:ticketId", ticketsHandler.Delete)

	api.PUT("/organisations/:orgId/memberships", membershipsHandler.Upsert)

	return r
}
