package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartSessionCookie = "cart_session"
	CtxSessionIDKey   = "session_id" // string
)

// 未ログインのカートを識別するCookie。無い・壊れている場合は新しく発行する。
func CartSession(ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(CartSessionCookie); err == nil {
				if _, err := uuid.Parse(ck.Value); err == nil {
					id = ck.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			//期限を延ばす
			c.SetCookie(&http.Cookie{
				Name:     CartSessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(CtxSessionIDKey, id)

			return next(c)
		}
	}
}

func SessionIDFrom(c echo.Context) string {
	id, _ := c.Get(CtxSessionIDKey).(string)
	return id
}
