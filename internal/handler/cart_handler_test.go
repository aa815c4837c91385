package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"github.com/ShevArtV/miniShop2/internal/handler"
	"github.com/ShevArtV/miniShop2/internal/hook"
	"github.com/ShevArtV/miniShop2/internal/infra/session"
	"github.com/ShevArtV/miniShop2/internal/middleware"
	repo "github.com/ShevArtV/miniShop2/internal/repository"
	"github.com/ShevArtV/miniShop2/internal/server"
	"github.com/ShevArtV/miniShop2/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// stubs
// =====================

type productStub map[int64]model.Product

func (s productStub) FindForCart(ctx context.Context, id int64, f repo.ProductFilter) (model.Product, error) {
	if id == 500 {
		return model.Product{}, errors.New("db down")
	}
	p, ok := s[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type memoryProvider struct{ store *session.MemoryStore }

func (p memoryProvider) StorageFor(owner usecase.CartOwner) repo.CartStorage {
	return session.NewCartStorage(p.store, owner.Key())
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// helper
// =====================

type testApp struct {
	e      *echo.Echo
	cfg    config.Config
	hooks  *hook.Pipeline
	audits *AuditRepoMock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{JWTSecret: "test-secret", SessionTTL: time.Hour, Cart: config.DefaultCartConfig()}
	cfg.Cart.MaxCount = 10

	products := productStub{
		1: {ID: 1, Name: "Coffee", Price: decimal.NewFromInt(100), Weight: decimal.NewFromInt(1), Stock: 50, IsActive: true},
		2: {ID: 2, Name: "Tea", Price: decimal.NewFromInt(40), Weight: decimal.Zero, Stock: 50, IsActive: true},
	}

	audits := new(AuditRepoMock)
	audits.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	hooks := hook.NewPipeline(zap.NewNop())
	hook.NewAuditTrail(audits, zap.NewNop()).Register(hooks)

	factory := usecase.NewCartFactory(cfg.Cart, memoryProvider{store: session.NewMemoryStore()}, products, hooks, zap.NewNop())

	e := server.New(zap.NewNop())
	server.RegisterRoutes(e, cfg,
		handler.NewCartHandler(factory, zap.NewNop()),
		handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(audits)),
	)

	return &testApp{e: e, cfg: cfg, hooks: hooks, audits: audits}
}

type reqOpt func(*http.Request)

func withCookie(ck *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(ck) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (a *testApp) do(t *testing.T, method, path, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CartSessionCookie {
			return ck
		}
	}
	t.Fatal("cart session cookie not set")
	return nil
}

func token(t *testing.T, secret string, sub int64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  9999999999,
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

type resultBody struct {
	Success      bool           `json:"success"`
	Code         string         `json:"code"`
	Message      string         `json:"message"`
	Data         map[string]any `json:"data"`
	Placeholders map[string]any `json:"placeholders"`
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) resultBody {
	t.Helper()
	var r resultBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

type cartBody struct {
	Items  []model.CartItem `json:"items"`
	Status map[string]any   `json:"status"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBody {
	t.Helper()
	var r cartBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

// =====================
// tests
// =====================

func TestCartHandler_AddAndGet(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/cart/items", `{"id":1,"count":2,"options":{"size":"L"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := sessionCookie(t, rec)

	body := decodeResult(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, usecase.MsgAddSuccess, body.Message)
	assert.Equal(t, float64(2), body.Data["total_count"])
	assert.Equal(t, "200", body.Data["total_cost"])
	assert.NotEmpty(t, body.Data["key"])

	get := app.do(t, http.MethodGet, "/cart", "", withCookie(ck))
	require.Equal(t, http.StatusOK, get.Code)
	cart := decodeCart(t, get)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.Equal(t, "L", cart.Items[0].Options["size"])
	assert.Equal(t, float64(1), cart.Status["total_positions"])

	// 別セッションには見えない
	other := app.do(t, http.MethodGet, "/cart", "")
	assert.Empty(t, decodeCart(t, other).Items)
}

func TestCartHandler_AddDefaultsAndStringID(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/cart/items", `{"id":"2","options":"{\"color\":\"red\"}"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResult(t, rec)
	assert.Equal(t, float64(1), body.Data["total_count"])
}

func TestCartHandler_AddErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   usecase.ErrorCode
	}{
		{"invalid id", `{"id":"abc","count":1}`, http.StatusBadRequest, usecase.CodeInvalidID},
		{"fractional id", `{"id":1.5,"count":1}`, http.StatusBadRequest, usecase.CodeInvalidID},
		{"zero count", `{"id":1,"count":0}`, http.StatusBadRequest, usecase.CodeInvalidCount},
		{"non numeric count", `{"id":1,"count":"many"}`, http.StatusBadRequest, usecase.CodeInvalidCount},
		{"over max", `{"id":1,"count":11}`, http.StatusUnprocessableEntity, usecase.CodeCountExceeded},
		{"unknown product", `{"id":99,"count":1}`, http.StatusNotFound, usecase.CodeProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/cart/items", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeResult(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, string(tt.code), body.Code)
		})
	}
}

func TestCartHandler_AddCoercesCount(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"string", `{"id":1,"count":"3"}`, 3},
		{"float", `{"id":1,"count":2.0}`, 2},
		{"fraction truncated", `{"id":1,"count":2.7}`, 2},
		{"omitted", `{"id":1}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/cart/items", tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			cart := decodeCart(t, app.do(t, http.MethodGet, "/cart", "", withCookie(sessionCookie(t, rec))))
			require.Len(t, cart.Items, 1)
			assert.Equal(t, int64(tt.want), cart.Items[0].Count)
		})
	}
}

func TestCartHandler_InfraErrorIs500(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/cart/items", `{"id":500,"count":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestCartHandler_ChangeRemoveClean(t *testing.T) {
	app := newTestApp(t)

	add := app.do(t, http.MethodPost, "/cart/items", `{"id":1,"count":1}`)
	ck := sessionCookie(t, add)
	key := decodeResult(t, add).Data["key"].(string)
	app.do(t, http.MethodPost, "/cart/items", `{"id":2,"count":1}`, withCookie(ck))

	change := app.do(t, http.MethodPatch, "/cart/items/"+key, `{"count":4}`, withCookie(ck))
	require.Equal(t, http.StatusOK, change.Code)
	cb := decodeResult(t, change)
	assert.Equal(t, float64(5), cb.Data["total_count"])
	assert.Equal(t, "400", cb.Data["cost"])

	missing := app.do(t, http.MethodPatch, "/cart/items/nope", `{"count":1}`, withCookie(ck))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	remove := app.do(t, http.MethodDelete, "/cart/items/"+key, "", withCookie(ck))
	require.Equal(t, http.StatusOK, remove.Code)
	assert.Equal(t, float64(1), decodeResult(t, remove).Data["total_positions"])

	again := app.do(t, http.MethodDelete, "/cart/items/"+key, "", withCookie(ck))
	assert.Equal(t, http.StatusNotFound, again.Code)

	clean := app.do(t, http.MethodDelete, "/cart", "", withCookie(ck))
	require.Equal(t, http.StatusOK, clean.Code)
	assert.Equal(t, float64(0), decodeResult(t, clean).Data["total_positions"])
}

func TestCartHandler_ContextScoping(t *testing.T) {
	app := newTestApp(t)

	add := app.do(t, http.MethodPost, "/cart/items", `{"id":1,"count":3}`, withHeader(handler.CartContextHeader, "mgr"))
	require.Equal(t, http.StatusOK, add.Code)
	ck := sessionCookie(t, add)

	web := decodeCart(t, app.do(t, http.MethodGet, "/cart", "", withCookie(ck)))
	assert.Empty(t, web.Items)
	assert.Equal(t, float64(0), web.Status["total_count"])
	assert.Equal(t, float64(1), web.Status["total_positions"])

	mgr := decodeCart(t, app.do(t, http.MethodGet, "/cart?ctx=mgr", "", withCookie(ck)))
	assert.Len(t, mgr.Items, 1)

	status := app.do(t, http.MethodGet, "/cart/status?ctx=mgr", "", withCookie(ck))
	require.Equal(t, http.StatusOK, status.Code)
	var st map[string]any
	require.NoError(t, json.NewDecoder(status.Body).Decode(&st))
	assert.Equal(t, float64(3), st["total_count"])
}

func TestCartHandler_UserCartFollowsToken(t *testing.T) {
	app := newTestApp(t)
	auth := withHeader("Authorization", token(t, app.cfg.JWTSecret, 42, "USER"))

	add := app.do(t, http.MethodPost, "/cart/items", `{"id":1,"count":1}`, auth)
	require.Equal(t, http.StatusOK, add.Code)

	// 別のブラウザ（Cookie無し）でも同じユーザーのカート
	get := decodeCart(t, app.do(t, http.MethodGet, "/cart", "", auth))
	assert.Len(t, get.Items, 1)

	app.audits.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Actor == "user:42" && l.Action == model.AuditActionAddToCart
	}))
}

func TestCartHandler_BadTokenIs401(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/cart", "", withHeader("Authorization", "Bearer broken"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartHandler_HookRejectedIs409(t *testing.T) {
	app := newTestApp(t)
	app.hooks.On(hook.BeforeAddToCart, func(ctx context.Context, p hook.Payload) hook.Response {
		return hook.Reject("closed")
	})

	rec := app.do(t, http.MethodPost, "/cart/items", `{"id":1,"count":1}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeResult(t, rec)
	assert.Equal(t, "closed", body.Message)
	assert.Nil(t, body.Data)
}

func TestAuditLogHandler(t *testing.T) {
	app := newTestApp(t)
	app.audits.On("List", mock.Anything, mock.Anything).Return([]model.AuditLog{{ID: 1, Actor: "user:1"}}, nil)

	user := app.do(t, http.MethodGet, "/admin/cart-audit-logs", "", withHeader("Authorization", token(t, app.cfg.JWTSecret, 1, "USER")))
	assert.Equal(t, http.StatusForbidden, user.Code)

	admin := withHeader("Authorization", token(t, app.cfg.JWTSecret, 1, "ADMIN"))

	ok := app.do(t, http.MethodGet, "/admin/cart-audit-logs?actor=user:1&limit=10", "", admin)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), `"actor":"user:1"`)

	bad := app.do(t, http.MethodGet, "/admin/cart-audit-logs?limit=x", "", admin)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	badAction := app.do(t, http.MethodGet, "/admin/cart-audit-logs?action=BUY", "", admin)
	assert.Equal(t, http.StatusBadRequest, badAction.Code)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
