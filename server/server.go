// Package server exposes the dashboard over HTTP and a websocket stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fxdash/dashboard"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/sim"
)

// Dashboard is the set of controller actions the server drives.
type Dashboard interface {
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
	RunAnalysis(ctx context.Context) (bool, error)
	ToggleAutoExecute(ctx context.Context) (bool, error)
	ExecuteSignal(ctx context.Context, index int) (sim.Position, bool, error)
	Open(ctx context.Context, req sim.OpenRequest) (sim.Position, error)
	Close(ctx context.Context, id string) (bool, error)
	Subscribe() (<-chan dashboard.Snapshot, func())
}

type Server struct {
	addr   string
	router *gin.Engine
}

func New(addr string, d Dashboard) *Server {
	if addr == "" {
		addr = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{d: d}
	h.Register(router.Group("/api"))
	router.GET("/chart", h.chart)
	router.GET("/ws", h.stream)

	return &Server{addr: addr, router: router}
}

func (s *Server) Addr() string { return s.addr }

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("http listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdown(srv)
		return nil
	case err := <-errCh:
		return err
	}
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown drains srv for up to five seconds. Failures are logged, not returned.
func shutdown(srv shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
