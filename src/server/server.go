package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/models"

	"github.com/gin-gonic/gin"
)

// RunAnalyzer executes analysis requests for the HTTP handlers.
type RunAnalyzer interface {
	Analyze(ctx context.Context, req models.MAnalysisRequest) (*models.MAnalysisRun, error)
	AnalyzeBatch(ctx context.Context, reqs []models.MAnalysisRequest) ([]models.MBatchItem, error)
}

// -----------------------------------------------------------------------------
// HTTPServer
// -----------------------------------------------------------------------------

type HTTPServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Analyzer RunAnalyzer         // set before Start
	DB       interfaces.IDatabase // optional
	Metrics  *metrics.Recorder    // optional
	engine   *gin.Engine
	httpSrv  *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MAnalysisRun
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once

	stateMutex  sync.RWMutex
	connections int
	lastRunAt   int64
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewHTTPServer(cfg *models.MConfig, db interfaces.IDatabase, recorder *metrics.Recorder, log *logger.Logger) *HTTPServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		Config:     cfg,
		Logger:     log,
		DB:         db,
		Metrics:    recorder,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MAnalysisRun, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// CORS for local dashboards
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *HTTPServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.POST("/analyze", s.postAnalyze)
	api.POST("/analyze/batch", s.postAnalyzeBatch)
	api.GET("/runs", s.getRuns)
	api.GET("/runs/:id", s.getRun)
	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)

	if s.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started))
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves HTTP until Stop is called.
func (s *HTTPServer) Start() error {
	if s.Analyzer == nil {
		return fmt.Errorf("http server: analyzer is not set")
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startHub()

	s.stateMutex.Lock()
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpSrv
	s.stateMutex.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop closes websocket clients and shuts the listener down.
func (s *HTTPServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)

		s.stateMutex.RLock()
		srv := s.httpSrv
		s.stateMutex.RUnlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *HTTPServer) postAnalyze(c *gin.Context) {
	var req models.MAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badBody(err))
		return
	}

	run, err := s.Analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) postAnalyzeBatch(c *gin.Context) {
	var batch models.MBatchRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		s.writeError(c, badBody(err))
		return
	}
	if err := validateBatch(c.Request.Context(), &batch); err != nil {
		s.writeError(c, err)
		return
	}

	items, err := s.Analyzer.AnalyzeBatch(c.Request.Context(), batch.Requests)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) getRuns(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is disabled"})
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	runs, err := s.DB.ListAnalysisRuns(c.Query("symbol"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if runs == nil {
		runs = []models.MAnalysisRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) getRun(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is disabled"})
		return
	}

	run, err := s.DB.GetAnalysisRun(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("run %s not found", c.Param("id"))})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "outcomes": run.Result.Outcomes})
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) getConfig(c *gin.Context) {
	sources := make([]string, 0, len(s.Config.Sources))
	for _, src := range s.Config.Sources {
		sources = append(sources, src.Name)
	}

	a := s.Config.Analysis
	c.JSON(http.StatusOK, gin.H{
		"lookahead_presets": a.LookaheadPresets,
		"drop_threshold": gin.H{
			"min":  a.DropThresholdMin,
			"max":  a.DropThresholdMax,
			"step": a.DropThresholdStep,
		},
		"defaults": a.Defaults,
		"sources":  sources,
	})
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := s.connections
	lastRun := s.lastRunAt
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": connections,
		"last_run_at": lastRun,
		"storage":     s.Config.Storage.DBType,
	})
}
