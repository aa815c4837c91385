package repository

import (
	"context"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
)

// カート明細の保存先（セッション / DB）。
// 変更系はすべて、変更後のカート全体を返す。呼び出し側はそれを新しい状態として採用する。
// 同一オーナーへの同時アクセスの直列化は実装側の責任。
type CartStorage interface {
	Get(ctx context.Context) (model.Cart, error)
	Add(ctx context.Context, item model.CartItem) (model.Cart, error)
	// Keyが無ければ ErrNotFound
	Remove(ctx context.Context, key string) (model.Cart, error)
	// Keyが無ければ ErrNotFound
	Change(ctx context.Context, key string, count int64) (model.Cart, error)
	// cartCtxが空なら全明細を消す
	Clean(ctx context.Context, cartCtx string) (model.Cart, error)
	Set(ctx context.Context, cart model.Cart) (model.Cart, error)
	SetContext(cartCtx string)
}
