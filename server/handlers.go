package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fxdash/chart"
	"github.com/rustyeddy/fxdash/dashboard"
	"github.com/rustyeddy/fxdash/market"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/sim"
)

type handlers struct {
	d Dashboard
}

func (h *handlers) Register(group *gin.RouterGroup) {
	group.GET("/snapshot", h.snapshot)
	group.GET("/summary", h.summary)
	group.GET("/prices", h.prices)
	group.GET("/signals", h.signals)
	group.GET("/positions", h.positions)

	group.POST("/analysis", h.runAnalysis)
	group.POST("/auto-execute", h.toggleAutoExecute)
	group.POST("/signals/:index/execute", h.executeSignal)
	group.POST("/positions", h.openPosition)
	group.DELETE("/positions/:id", h.closePosition)
}

// fail maps controller errors to a status. It reports false when err is nil.
func fail(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	status := http.StatusInternalServerError
	if errors.Is(err, dashboard.ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
	return true
}

func (h *handlers) current(c *gin.Context) (dashboard.Snapshot, bool) {
	s, err := h.d.Snapshot(c.Request.Context())
	if fail(c, err) {
		return s, false
	}
	return s, true
}

func (h *handlers) snapshot(c *gin.Context) {
	if s, ok := h.current(c); ok {
		c.JSON(http.StatusOK, s)
	}
}

func (h *handlers) summary(c *gin.Context) {
	if s, ok := h.current(c); ok {
		c.JSON(http.StatusOK, s.Summary)
	}
}

func (h *handlers) prices(c *gin.Context) {
	if s, ok := h.current(c); ok {
		c.JSON(http.StatusOK, gin.H{"prices": s.Prices})
	}
}

func (h *handlers) signals(c *gin.Context) {
	if s, ok := h.current(c); ok {
		c.JSON(http.StatusOK, gin.H{"signals": s.Signals, "analyzing": s.Summary.Analyzing})
	}
}

func (h *handlers) positions(c *gin.Context) {
	if s, ok := h.current(c); ok {
		c.JSON(http.StatusOK, gin.H{"positions": s.Positions})
	}
}

func (h *handlers) runAnalysis(c *gin.Context) {
	started, err := h.d.RunAnalysis(c.Request.Context())
	if fail(c, err) {
		return
	}
	if !started {
		c.JSON(http.StatusOK, gin.H{"started": false})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

func (h *handlers) toggleAutoExecute(c *gin.Context) {
	on, err := h.d.ToggleAutoExecute(c.Request.Context())
	if fail(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"auto_execute": on})
}

func (h *handlers) executeSignal(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	pos, ok, err := h.d.ExecuteSignal(c.Request.Context(), idx)
	if fail(c, err) {
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no signal at index %d", idx)})
		return
	}
	c.JSON(http.StatusCreated, pos)
}

type openBody struct {
	Pair  string  `json:"pair" binding:"required"`
	Side  string  `json:"side" binding:"required"`
	Entry float64 `json:"entry" binding:"required"`
}

func (h *handlers) openPosition(c *gin.Context) {
	var body openBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := body.request()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, err := h.d.Open(c.Request.Context(), req)
	if fail(c, err) {
		return
	}
	c.JSON(http.StatusCreated, pos)
}

func (b openBody) request() (sim.OpenRequest, error) {
	pair, err := market.ParsePair(b.Pair)
	if err != nil {
		return sim.OpenRequest{}, err
	}
	side, err := market.ParseSide(b.Side)
	if err != nil {
		return sim.OpenRequest{}, err
	}
	req := sim.OpenRequest{Pair: pair, Side: side, Entry: b.Entry}
	return req, req.Validate()
}

func (h *handlers) closePosition(c *gin.Context) {
	id := c.Param("id")
	closed, err := h.d.Close(c.Request.Context(), id)
	if fail(c, err) {
		return
	}
	if !closed {
		logger.Debugf("close %s: not open", id)
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) chart(c *gin.Context) {
	s, ok := h.current(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := chart.Render(c.Writer, s.Prices, chart.Options{
		Subtitle: fmt.Sprintf("%d samples, balance %.2f", len(s.Prices), s.Summary.Balance),
	})
	if err != nil {
		logger.Warnf("chart: %v", err)
	}
}
