package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"github.com/ShevArtV/miniShop2/internal/hook"
	"github.com/ShevArtV/miniShop2/internal/middleware"
	"github.com/ShevArtV/miniShop2/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const CartContextHeader = "X-Cart-Context"

// /cartのHTTP
type CartHandler struct {
	factory *usecase.CartFactory
	logger  *zap.Logger
}

// DI
func NewCartHandler(factory *usecase.CartFactory, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{factory: factory, logger: logger}
}

// id・count は数値・文字列どちらでも受ける。options はオブジェクトかJSON文字列。
type AddCartRequest struct {
	ID      any `json:"id"`
	Count   any `json:"count"`
	Options any `json:"options"`
}

type ChangeCartItemRequest struct {
	Count any `json:"count"`
}

type CartResponse struct {
	Items  []model.CartItem `json:"items"`
	Status model.CartStatus `json:"status"`
}

// /cart, /cart/items/{key} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.OptionalAuthJWT(cfg))
	g.Use(middleware.CartSession(cfg.SessionTTL))

	g.GET("", h.getCart)
	g.GET("/status", h.getStatus)
	g.POST("/items", h.add)
	g.PATCH("/items/:key", h.change)
	g.DELETE("/items/:key", h.remove)
	g.DELETE("", h.clean)
}

func (h *CartHandler) getCart(c echo.Context) error {
	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, CartResponse{
		Items:  uc.Get().Items(),
		Status: uc.Status(ctx, nil),
	})
}

func (h *CartHandler) getStatus(c echo.Context) error {
	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, uc.Status(c.Request().Context(), nil))
}

func (h *CartHandler) add(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//count省略時は1
	count := countValue(req.Count, 1)

	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := uc.Add(c.Request().Context(), usecase.AddCartInput{
		ProductID: idString(req.ID),
		Count:     count,
		Options:   req.Options,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return writeResult(c, res)
}

func (h *CartHandler) change(c echo.Context) error {
	var req ChangeCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := uc.Change(c.Request().Context(), c.Param("key"), countValue(req.Count, 0))
	if err != nil {
		return h.fail(c, err)
	}
	return writeResult(c, res)
}

func (h *CartHandler) remove(c echo.Context) error {
	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := uc.Remove(c.Request().Context(), c.Param("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return writeResult(c, res)
}

func (h *CartHandler) clean(c echo.Context) error {
	uc, err := h.open(c)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := uc.Clean(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return writeResult(c, res)
}

// リクエストの持ち主・ctxでカートを開く。actor はフック（監査ログ）に渡る。
func (h *CartHandler) open(c echo.Context) (*usecase.CartUsecase, error) {
	owner := usecase.CartOwner{
		UserID:    middleware.UserIDFrom(c),
		SessionID: middleware.SessionIDFrom(c),
	}
	if !owner.Valid() {
		return nil, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	req := c.Request()
	ctx := hook.WithActor(req.Context(), owner.Key())
	c.SetRequest(req.WithContext(ctx))

	return h.factory.Open(ctx, owner, cartContext(c))
}

func (h *CartHandler) fail(c echo.Context, err error) error {
	if _, ok := usecase.AsHTTPError(err); !ok {
		h.logger.Error("cart request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return writeError(c, err)
}

// ヘッダ優先、無ければ ?ctx=
func cartContext(c echo.Context) string {
	if v := strings.TrimSpace(c.Request().Header.Get(CartContextHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(c.QueryParam("ctx"))
}

// 整数に丸める。"3" や 2.0 も受ける。読めない値は0（範囲チェックはusecase）
func countValue(v any, def int64) int64 {
	switch t := v.(type) {
	case nil:
		return def
	case float64:
		return floatCount(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatCount(f)
		}
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func floatCount(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
