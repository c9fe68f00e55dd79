// Package server exposes the operation router and streaming store over
// HTTP. It is the delivery surface only: confinement, range validation and
// chunking live in their own packages.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fsgate/internal/config"
	"fsgate/internal/fsop"
	"fsgate/internal/logger"
	"fsgate/internal/security"
	"fsgate/internal/source"
	"fsgate/internal/version"
)

// Server wires the operation router and streaming store into a gin engine.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	router *fsop.Router
	store  source.Store
}

// New builds a server confined to root, streaming file bodies from store.
func New(cfg *config.Config, root *security.Root, store source.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), logger.Middleware())

	srv := &Server{
		engine: engine,
		cfg:    cfg,
		router: fsop.NewRouter(root),
		store:  store,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	s.engine.GET("/files/*path", s.serveFile)
	s.engine.HEAD("/files/*path", s.serveFile)

	ops := s.engine.Group("/ops")
	if s.cfg.OpsToken != "" {
		ops.Use(tokenAuth(s.cfg.OpsToken))
	}
	ops.POST("", s.handleOp)
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}
