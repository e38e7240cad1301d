package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"smc-trading-bot/internal/auth"
	"smc-trading-bot/internal/events"
	"smc-trading-bot/internal/journal"
	"smc-trading-bot/internal/logging"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// EngineAPI is what the server needs from the running engine
type EngineAPI interface {
	Status() map[string]interface{}
	Zones() []map[string]interface{}
	OpenTrade() map[string]interface{}
	FlattenNow() error
}

// Server is the HTTP/WebSocket surface over the engine and journal
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig
	log        *logging.Logger

	engine EngineAPI
	repo   *journal.Repository // nil when the database is disabled
	symbol string

	hub        *WSHub
	jwtManager *auth.JWTManager // nil when auth is disabled
}

// NewServer creates the API server and registers all routes
func NewServer(cfg ServerConfig, engine EngineAPI, repo *journal.Repository, symbol string, jwtManager *auth.JWTManager) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" || cfg.AllowedOrigins == "" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.AllowedOrigins}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:     router,
		config:     cfg,
		log:        logging.WithComponent("api"),
		engine:     engine,
		repo:       repo,
		symbol:     symbol,
		hub:        NewWSHub(),
		jwtManager: jwtManager,
	}
	s.registerRoutes()
	return s
}

// AttachBus relays every engine event to connected WebSocket clients
func (s *Server) AttachBus(bus *events.EventBus) {
	bus.SubscribeAll(s.hub.BroadcastEvent)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	if s.jwtManager != nil {
		api.Use(auth.Middleware(s.jwtManager))
	}
	api.GET("/status", s.handleStatus)
	api.GET("/zones", s.handleZones)
	api.GET("/trade", s.handleTrade)
	api.GET("/signals", s.handleSignals)
	api.GET("/trades", s.handleTrades)
	api.GET("/summary/:day", s.handleDailySummary)
	api.POST("/flatten", s.handleFlatten)
}

// Start runs the hub and the HTTP server. Blocks until the server exits.
func (s *Server) Start() error {
	go s.hub.Run()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
