package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"
	"signal-tracker/src/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// StatusServer
// -----------------------------------------------------------------------------

// StatusServer is the read-only HTTP surface: health, config and
// Prometheus metrics, plus a websocket feed of appended points.
type StatusServer struct {
	Config *models.MConfig
	Store  *store.TickerStore
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server

	// WebSocket hub state
	clients    map[*Client]struct{}
	broadcast  chan *models.MPointUpdate
	register   chan *Client
	unregister chan *Client

	mu         sync.RWMutex
	lastUpdate int64
}

// -----------------------------------------------------------------------------

func NewStatusServer(cfg *models.MConfig, st *store.TickerStore, log *logger.Logger) *StatusServer {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{
		Config:  cfg,
		Store:   st,
		Logger:  log,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so a burst of appends never blocks the scheduler.
		broadcast:  make(chan *models.MPointUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *StatusServer) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Start runs the HTTP server until Stop is called.
func (s *StatusServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.HTTP.Host, s.Config.HTTP.Port)
	s.Logger.Info("status server on %s", addr)

	go s.runHub()

	s.http = &http.Server{Addr: addr, Handler: s.engine}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *StatusServer) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// -----------------------------------------------------------------------------

// PublishPoint implements IPointPublisher: fan a fresh point out to
// websocket subscribers without blocking the caller.
func (s *StatusServer) PublishPoint(symbol string, pt models.MPricePoint) {
	s.mu.Lock()
	s.lastUpdate = time.Now().Unix()
	s.mu.Unlock()

	update := &models.MPointUpdate{Type: "UPDATE", Symbol: symbol, Point: pt}
	select {
	case s.broadcast <- update:
	default:
		s.Logger.Warning("broadcast queue full, dropping update for %s", symbol)
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusServer) getHealth(c *gin.Context) {
	symbols := s.Store.Symbols()
	points := make(map[string]int, len(symbols))
	for _, sym := range symbols {
		if series, ok := s.Store.Series(sym); ok {
			points[sym] = series.Len()
		}
	}

	s.mu.RLock()
	connections := len(s.clients)
	lastUpdate := s.lastUpdate
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"tickers":       symbols,
		"points":        points,
		"connections":   connections,
		"latest_update": lastUpdate,
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"interval_minutes": s.Config.IntervalMinutes,
		"window_size":      s.Config.WindowSize(),
		"tickers":          s.Store.Symbols(),
	})
}
