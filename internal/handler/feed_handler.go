package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"

	"recorss/internal/logger"
	"recorss/internal/service"
)

type FeedHandler struct {
	ctx       context.Context // server lifetime; cancels manual passes on shutdown
	refresh   service.RefreshService
	outputDir string
	host      string
	wg        sync.WaitGroup
}

func NewFeedHandler(ctx context.Context, refresh service.RefreshService, outputDir, host string) *FeedHandler {
	return &FeedHandler{ctx: ctx, refresh: refresh, outputDir: outputDir, host: host}
}

// Wait blocks until manual passes started by Refresh have returned.
func (h *FeedHandler) Wait() {
	h.wg.Wait()
}

func (h *FeedHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/feeds", h.List)
	g.GET("/files/:directory/"+service.FeedFileName, h.File)
	g.POST("/refresh", h.Refresh)
}

// List maps each configured feed URL to the URL of its generated feed.
func (h *FeedHandler) List(c echo.Context) error {
	out := make(map[string]string)
	for _, source := range h.refresh.Sources() {
		out[source.URL] = h.host + "/files/" + source.Directory + "/" + service.FeedFileName
	}
	return c.JSON(http.StatusOK, out)
}

// File serves a generated feed. Only configured directories are served.
func (h *FeedHandler) File(c echo.Context) error {
	directory := c.Param("directory")
	for _, source := range h.refresh.Sources() {
		if source.Directory != directory {
			continue
		}
		c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
		return c.File(filepath.Join(h.outputDir, source.Directory, service.FeedFileName))
	}
	return c.JSON(http.StatusNotFound, errorResponse{Error: "resource not found"})
}

// Refresh starts a pass in the background.
func (h *FeedHandler) Refresh(c echo.Context) error {
	if h.refresh.IsRefreshing() {
		return writeServiceError(c, service.ErrAlreadyRefreshing)
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		report, err := h.refresh.RefreshAll(h.ctx)
		if err != nil {
			logger.Warn("manual refresh not run", "module", "handler", "action", "refresh", "resource", "pass", "result", "failed", "error", err)
			return
		}
		logger.Info("manual refresh completed", "module", "handler", "action", "refresh", "resource", "pass", "result", "ok", "run_id", report.RunID, "failed", len(report.Failed()))
	}()

	return c.JSON(http.StatusAccepted, refreshStartedResponse{Status: "started"})
}
