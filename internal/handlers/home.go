package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HomeHandler serves the root health endpoint.
type HomeHandler struct{}

// NewHomeHandler creates the home handler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Register mounts GET / on the Echo instance.
func (h *HomeHandler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
}

// Home returns a static confirmation body.
func (h *HomeHandler) Home(c echo.Context) error {
	return c.HTML(http.StatusOK, "<h3>✅ FileStream bot is running.</h3>")
}
