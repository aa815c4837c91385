package handler

import (
	"net/http"
	"strconv"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/middleware"
	"github.com/ShevArtV/miniShop2/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/cart-audit-logs
type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

// DI
func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("/cart-audit-logs", h.list)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	in := usecase.AuditLogListInput{
		Actor:  c.QueryParam("actor"),
		Action: c.QueryParam("action"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	}

	var err error
	if in.ProductID, err = queryInt64(c, "product_id"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	limit, err := queryInt64(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, err := queryInt64(c, "offset")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}
	in.Limit, in.Offset = int(limit), int(offset)

	logs, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": logs})
}

// 未指定は0
func queryInt64(c echo.Context, name string) (int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
