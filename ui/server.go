package ui

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"regsim/app"

	"github.com/gin-gonic/gin"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

const artifactRoute = "/artifacts/:runID/:file"

// Options configures the web server
type Options struct {
	GinMode        string
	RequestTimeout time.Duration
}

// Server represents the web server for the regression simulator
type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	service        *app.SimulationService
	templates      *template.Template
	about          template.HTML
	requestTimeout time.Duration
}

// NewServer creates a new web server instance with templates and routes ready
func NewServer(service *app.SimulationService, opts Options) (*Server, error) {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	s := &Server{
		router:         gin.Default(),
		service:        service,
		requestTimeout: opts.RequestTimeout,
	}

	if err := s.initTemplates(); err != nil {
		return nil, err
	}
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/", s.handleSimulate)

	s.router.GET(artifactRoute, s.handleArtifact)

	s.router.POST("/api/simulate", s.handleAPISimulate)
	s.router.GET("/healthz", s.handleHealth)
}

// Start starts the web server and blocks until it stops
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Starting regsim UI on http://%s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight runs
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
