package hook

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"go.uber.org/zap"
)

const MsgStockExceeded = "stock exceeded"

// StockGuard は同じ商品の数量合計が在庫を超える追加・変更を拒否する。
type StockGuard struct {
	products repo.ProductRepository
	filter   repo.ProductFilter
	logger   *zap.Logger
}

// DI
func NewStockGuard(products repo.ProductRepository, filter repo.ProductFilter, logger *zap.Logger) *StockGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockGuard{products: products, filter: filter, logger: logger}
}

func (g *StockGuard) Register(p *Pipeline) {
	p.On(BeforeAddToCart, g.beforeAdd)
	p.On(BeforeChangeInCart, g.beforeChange)
}

func (g *StockGuard) beforeAdd(ctx context.Context, p Payload) Response {
	if p.Product == nil {
		return Accept()
	}
	// 同じ商品の別の明細（オプション違い・別ctx）も合算
	total := quantityOf(p.AllLines, p.Product.ID, "") + p.Count
	if total > p.Product.Stock {
		return Reject(MsgStockExceeded)
	}
	return Accept()
}

func (g *StockGuard) beforeChange(ctx context.Context, p Payload) Response {
	item, ok := p.AllLines.Get(p.Key)
	if !ok {
		return Accept()
	}

	product, err := g.products.FindForCart(ctx, item.ProductID, g.filter)
	if errors.Is(err, repo.ErrNotFound) {
		return Reject(fmt.Sprintf("product %d is not available", item.ProductID))
	}
	if err != nil {
		g.logger.Error("stock guard: find product failed", zap.Int64("product_id", item.ProductID), zap.Error(err))
		return Reject(MsgStockExceeded)
	}

	total := quantityOf(p.AllLines, item.ProductID, p.Key) + p.Count
	if total > product.Stock {
		return Reject(MsgStockExceeded)
	}
	return Accept()
}

// productIDの明細の数量合計（skipKeyの明細は除く）
func quantityOf(cart model.Cart, productID int64, skipKey string) int64 {
	var n int64
	for _, it := range cart.Items() {
		if it.ProductID != productID || it.Key == skipKey {
			continue
		}
		n += it.Count
	}
	return n
}
