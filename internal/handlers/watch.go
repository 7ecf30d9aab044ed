// Package handlers contains the HTTP handlers for the public link surface.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/filestreamhq/filestream/internal/config"
	"github.com/filestreamhq/filestream/internal/registry"
	"github.com/filestreamhq/filestream/internal/resolver"
)

// Resolver resolves a stable ID to a live delivery descriptor.
type Resolver interface {
	Resolve(ctx context.Context, stableID string) (resolver.Delivery, error)
}

// WatchHandler serves /watch/:id: either a rendered player page embedding
// the resolved delivery URL, or a deep-link redirect into Telegram. Both
// modes key off the same stable ID and the same resolver lookup.
type WatchHandler struct {
	resolver    Resolver
	mode        string
	botUsername string
	logger      *slog.Logger
}

// NewWatchHandler creates the watch handler. mode is config.ModePlayer or
// config.ModeRedirect.
func NewWatchHandler(log *slog.Logger, res Resolver, mode, botUsername string) *WatchHandler {
	if mode != config.ModeRedirect {
		mode = config.ModePlayer
	}
	return &WatchHandler{
		resolver:    res,
		mode:        mode,
		botUsername: botUsername,
		logger:      log.With(slog.String("handler", "watch")),
	}
}

// Register mounts GET /watch/:id on the Echo instance.
func (h *WatchHandler) Register(e *echo.Echo) {
	e.GET("/watch/:id", h.Watch)
}

// Watch resolves the stable ID and renders the configured presentation.
// 404 when the link is unknown, 502 when the upstream lookup fails.
func (h *WatchHandler) Watch(c echo.Context) error {
	stableID := c.Param("id")

	delivery, err := h.resolver.Resolve(c.Request().Context(), stableID)
	switch {
	case err == nil:
	case errors.Is(err, registry.ErrNotFound):
		return c.HTML(http.StatusNotFound,
			"<h3>File not found. The link may be wrong or the file has been removed.</h3>")
	case errors.Is(err, resolver.ErrUpstreamUnavailable):
		h.logger.Warn("resolve upstream failed", slog.String("stable_id", stableID), slog.Any("error", err))
		return c.HTML(http.StatusBadGateway,
			"<h3>The file is temporarily unavailable. Please try again shortly.</h3>")
	default:
		h.logger.Error("resolve failed", slog.String("stable_id", stableID), slog.Any("error", err))
		return c.HTML(http.StatusInternalServerError,
			"<h3>Something went wrong on our side.</h3>")
	}

	if h.mode == config.ModeRedirect {
		target := "https://t.me/" + h.botUsername + "?start=" + url.QueryEscape(stableID)
		return c.Redirect(http.StatusFound, target)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return playerTemplate.Execute(c.Response(), playerData{
		Title:       delivery.Title,
		StreamURL:   delivery.URL,
		MIMEType:    delivery.MIMEType,
		BotUsername: h.botUsername,
	})
}
