package server

import (
	"net/http"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, cartH *handler.CartHandler, auditH *handler.AuditLogHandler) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	cartH.RegisterRoutes(e, cfg)
	auditH.RegisterRoutes(e, cfg)
}
