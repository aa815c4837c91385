package repository

import (
	"context"
	"errors"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カートに入れられる商品の条件
type ProductFilter struct {
	ExcludeDeleted     bool
	ExcludeUnpublished bool
}

// 商品の参照だけを約束（カタログの更新はこのサービスの外）。
type ProductRepository interface {
	// 条件に合わなければ ErrNotFound
	FindForCart(ctx context.Context, id int64, f ProductFilter) (model.Product, error)
}
