package session

import (
	"context"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"
)

// セッションIDごとのカート置き場。
// Update は同じセッションへの読み書きを直列化しなければならない。
type Store interface {
	Load(ctx context.Context, sessionID string) (model.Cart, error)
	Update(ctx context.Context, sessionID string, fn func(model.Cart) (model.Cart, error)) (model.Cart, error)
}

// セッションに保存するカート（ログイン不要、期限付き）。
type CartStorage struct {
	store     Store
	sessionID string
	cartCtx   string
}

// DI
func NewCartStorage(store Store, sessionID string) *CartStorage {
	return &CartStorage{store: store, sessionID: sessionID}
}

var _ repo.CartStorage = (*CartStorage)(nil)

func (s *CartStorage) SetContext(cartCtx string) {
	s.cartCtx = cartCtx
}

func (s *CartStorage) Get(ctx context.Context) (model.Cart, error) {
	return s.store.Load(ctx, s.sessionID)
}

func (s *CartStorage) Add(ctx context.Context, item model.CartItem) (model.Cart, error) {
	if item.Ctx == "" {
		item.Ctx = s.cartCtx
	}
	return s.store.Update(ctx, s.sessionID, func(c model.Cart) (model.Cart, error) {
		return c.With(item), nil
	})
}

func (s *CartStorage) Remove(ctx context.Context, key string) (model.Cart, error) {
	return s.store.Update(ctx, s.sessionID, func(c model.Cart) (model.Cart, error) {
		if !c.Has(key) {
			return c, repo.ErrNotFound
		}
		return c.Without(key), nil
	})
}

func (s *CartStorage) Change(ctx context.Context, key string, count int64) (model.Cart, error) {
	return s.store.Update(ctx, s.sessionID, func(c model.Cart) (model.Cart, error) {
		next, ok := c.WithCount(key, count)
		if !ok {
			return c, repo.ErrNotFound
		}
		return next, nil
	})
}

func (s *CartStorage) Clean(ctx context.Context, cartCtx string) (model.Cart, error) {
	return s.store.Update(ctx, s.sessionID, func(c model.Cart) (model.Cart, error) {
		return c.WithoutContext(cartCtx), nil
	})
}

func (s *CartStorage) Set(ctx context.Context, cart model.Cart) (model.Cart, error) {
	return s.store.Update(ctx, s.sessionID, func(model.Cart) (model.Cart, error) {
		return cart.Clone(), nil
	})
}
