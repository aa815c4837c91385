package usecase

import (
	"context"
	"strconv"

	"github.com/ShevArtV/miniShop2/internal/config"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"go.uber.org/zap"
)

// カートの持ち主。ログイン中は UserID、未ログインは SessionID。
type CartOwner struct {
	UserID    int64
	SessionID string
}

// "user:1" / "session:xxx"
func (o CartOwner) Key() string {
	if o.UserID > 0 {
		return "user:" + strconv.FormatInt(o.UserID, 10)
	}
	return "session:" + o.SessionID
}

func (o CartOwner) Valid() bool {
	return o.UserID > 0 || o.SessionID != ""
}

// 持ち主ごとの保存先を返す（設定で session / db を選ぶ）。
type CartStorageProvider interface {
	StorageFor(owner CartOwner) repo.CartStorage
}

// リクエストごとに CartUsecase を組み立てる。
type CartFactory struct {
	cfg      config.CartConfig
	storages CartStorageProvider
	products repo.ProductRepository
	hooks    HookInvoker
	logger   *zap.Logger
}

// DI
func NewCartFactory(
	cfg config.CartConfig,
	storages CartStorageProvider,
	products repo.ProductRepository,
	hooks HookInvoker,
	logger *zap.Logger,
) *CartFactory {
	return &CartFactory{
		cfg:      cfg,
		storages: storages,
		products: products,
		hooks:    hooks,
		logger:   logger,
	}
}

func (f *CartFactory) Open(ctx context.Context, owner CartOwner, cartCtx string) (*CartUsecase, error) {
	u, err := NewCartUsecase(ctx, f.cfg, f.storages.StorageFor(owner), f.products, f.hooks, f.logger)
	if err != nil {
		return nil, err
	}
	u.Initialize(cartCtx)
	return u, nil
}
