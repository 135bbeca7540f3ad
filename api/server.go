package api

import (
	"context"
	"net/http"
	"time"

	"stakearena/application"
	"stakearena/config"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server exposes the match engine over HTTP
type Server struct {
	router     *gin.Engine
	uowFactory application.UnitOfWorkFactory
	jwtSecret  string
	httpServer *http.Server
}

// NewServer creates a new API server with all routes registered
func NewServer(uowFactory application.UnitOfWorkFactory) *Server {
	cfg := config.Get()
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:     gin.New(),
		uowFactory: uowFactory,
		jwtSecret:  cfg.JWTSecret,
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.POST("/auth/login", s.login)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	authed := s.router.Group("/", Auth(s.jwtSecret))
	{
		authed.GET("/users/me", s.getMe)
		authed.GET("/users/me/ledger", s.getLedger)
		authed.GET("/users/:id", s.getUser)
		authed.POST("/users/transfer", s.transfer)

		authed.POST("/teams", s.createTeam)
		authed.GET("/teams/:id", s.getTeam)

		authed.GET("/matches", s.listMatches)
		authed.POST("/matches", s.createMatch)
		authed.GET("/matches/:id", s.getMatch)
		authed.POST("/matches/:id/join", s.joinMatch)
		authed.POST("/matches/join-by-code", s.joinByCode)
		authed.POST("/matches/:id/ready", s.markReady)
		authed.POST("/matches/:id/start", s.startMatch)
		authed.POST("/matches/:id/result", s.reportResult)

		authed.POST("/matches/:id/dispute", s.openDispute)
		authed.POST("/matches/:id/evidence", s.submitEvidence)

		admin := authed.Group("/admin", RequireAdmin())
		admin.POST("/matches/:id/settle", s.adminForceSettle)
	}
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := config.Get()
	s.httpServer = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Router exposes the gin engine, for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("Request handled")
	}
}
