package blobserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/pkg/scheduler"
	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BasePath is where documents live, matching the public jsonblob layout so
// the httpblob client can point at either
const BasePath = "/api/jsonBlob"

// MaxDocumentSize bounds a request body
const MaxDocumentSize = 1 << 20

// Server exposes a BlobStore over HTTP: POST creates, GET and PUT on an id
// read and replace
type Server struct {
	store     storage.BlobStore
	logger    *logging.Logger
	router    *gin.Engine
	sched     *scheduler.Scheduler
	maxAge    time.Duration
	startTime time.Time
}

// NewServer creates a server over store. Backends that can expire documents
// are swept of those idle longer than maxAge once StartSweeper runs; zero
// disables the sweep.
func NewServer(store storage.BlobStore, maxAge time.Duration, logger *logging.Logger) *Server {
	if store == nil {
		panic("blob store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default
	}

	s := &Server{
		store:     store,
		logger:    logger.Named("blobserver"),
		maxAge:    maxAge,
		startTime: time.Now(),
	}
	s.sched = scheduler.NewScheduler(s.logger)

	r := gin.New()
	r.Use(gin.Recovery(), s.observe())
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST(BasePath, s.create)
	r.GET(BasePath+"/:id", s.get)
	r.PUT(BasePath+"/:id", s.put)
	s.router = r

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartSweeper schedules the expiry sweep. It does nothing when the backend
// cannot expire documents or maxAge is zero.
func (s *Server) StartSweeper(ctx context.Context) bool {
	if _, ok := s.store.(storage.Sweeper); !ok || s.maxAge <= 0 {
		return false
	}
	s.sched.AddTask("blob_sweep", sweepInterval(s.maxAge), s.Sweep)
	s.sched.Start(ctx)
	s.logger.Info("Sweeping documents idle for more than %s", s.maxAge)
	return true
}

// Stop stops the sweeper and waits for a running sweep
func (s *Server) Stop() {
	s.sched.Stop()
	s.sched.Wait()
}

// Sweep removes documents idle for longer than maxAge
func (s *Server) Sweep(ctx context.Context) error {
	sweeper, ok := s.store.(storage.Sweeper)
	if !ok || s.maxAge <= 0 {
		return nil
	}
	return sweeper.CleanupOldBlobs(ctx, s.maxAge)
}

// sweepInterval runs the sweep a few times per expiry window, at most hourly
func sweepInterval(maxAge time.Duration) time.Duration {
	interval := maxAge / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// observe records request counts and latency
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		method := c.Request.Method
		metrics.BlobRequests.WithLabelValues(method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.BlobRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) create(c *gin.Context) {
	data, ok := s.readDocument(c)
	if !ok {
		return
	}

	id, err := s.store.Create(c.Request.Context(), data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Location", BasePath+"/"+id)
	c.Header("X-Jsonblob-Id", id)
	c.Data(http.StatusCreated, "application/json", data)
}

func (s *Server) get(c *gin.Context) {
	data, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) put(c *gin.Context) {
	data, ok := s.readDocument(c)
	if !ok {
		return
	}

	if err := s.store.Put(c.Request.Context(), c.Param("id"), data); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// readDocument reads and validates the request body, answering the request
// itself when the body is unusable
func (s *Server) readDocument(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxDocumentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return nil, false
	}
	if err := storage.ValidateDocument(data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrBlobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
		return
	}
	if errors.Is(err, storage.ErrInvalidDocument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
}
