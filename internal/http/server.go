package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/cadencehq/audit-engine/internal/config"
	"github.com/cadencehq/audit-engine/internal/http/middleware"
	"github.com/cadencehq/audit-engine/internal/logger"
	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/cadencehq/audit-engine/internal/scheduler"
	"github.com/cadencehq/audit-engine/internal/service/lifecycle"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

// NewServer wires repositories, services, and routes. The coordinator may
// be nil when the process does not run jobs; the jobs endpoints answer 503
// in that case.
func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client, co *scheduler.Coordinator) *Server {
	// repos (MySQL)
	usersRepo := repository.NewUsersRepository(mysqlDB)
	companiesRepo := repository.NewCompaniesRepository(mysqlDB)
	auditsRepo := repository.NewAuditsRepository(mysqlDB)

	// repos (ClickHouse)
	chEventsRepo := repository.NewCHAuditEventsRepository(clickhouseDB)

	// services
	mgr := lifecycle.NewManager(companiesRepo, auditsRepo, usersRepo, logger.Log)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(usersRepo)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     cfg.RateLimit.RPS,
		Burst:          cfg.RateLimit.Burst,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/audits", createAuditHandler(mgr))
	v1.GET("/audits", listAuditsHandler(auditsRepo))
	v1.POST("/audits/:id/complete", completeAuditHandler(mgr))
	v1.POST("/companies/:id/schedule", scheduleCompanyHandler(mgr))
	v1.GET("/reports/audit-events", listAuditEventsHandler(chEventsRepo))
	v1.GET("/jobs/status", jobsStatusHandler(co))
	v1.POST("/jobs/restart", restartJobsHandler(co))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
