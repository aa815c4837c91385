package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ShevArtV/miniShop2/internal/config"
	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"github.com/ShevArtV/miniShop2/internal/hook"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// フックの呼び出し口。hook.Pipeline が実装する。
type HookInvoker interface {
	Invoke(ctx context.Context, ev hook.Event, p hook.Payload) hook.Response
}

// CartUsecase は1セッション（1リクエスト）分のカートを持つ。
// 明細の変更はすべてここを通し、保存先が返したカートで手元の状態を置き換える。
// 同じインスタンスを複数goroutineから使ってはいけない。
type CartUsecase struct {
	cfg      config.CartConfig
	storage  repo.CartStorage
	products repo.ProductRepository
	hooks    HookInvoker
	logger   *zap.Logger

	cart    model.Cart
	cartCtx string
}

// 保存先からカートを読み込んで作る。ctxは cfg.DefaultContext で初期化される。
func NewCartUsecase(
	ctx context.Context,
	cfg config.CartConfig,
	storage repo.CartStorage,
	products repo.ProductRepository,
	hooks HookInvoker,
	logger *zap.Logger,
) (*CartUsecase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hooks == nil {
		hooks = hook.NewPipeline(logger)
	}

	cart, err := storage.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	u := &CartUsecase{
		cfg:      cfg,
		storage:  storage,
		products: products,
		hooks:    hooks,
		logger:   logger,
		cart:     cart,
	}
	u.Initialize(cfg.DefaultContext)
	return u, nil
}

// 有効なctxを切り替える。ctxを無視する設定なら常に既定のctx。
func (u *CartUsecase) Initialize(cartCtx string) {
	if u.cfg.IgnorePerContextScoping || cartCtx == "" {
		cartCtx = u.cfg.DefaultContext
	}
	u.cartCtx = cartCtx
	u.storage.SetContext(cartCtx)
}

func (u *CartUsecase) Context() string {
	return u.cartCtx
}

// 追加の入力。ProductID は数値文字列、Options は map または JSON文字列。
type AddCartInput struct {
	ProductID string
	Count     int64
	Options   any
}

// Add は商品をカートに入れる。同じKeyの明細があれば数量を足す（Change に委ねる）。
func (u *CartUsecase) Add(ctx context.Context, in AddCartInput) (Result, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(in.ProductID), 10, 64)
	if err != nil || id <= 0 {
		return failure(CodeInvalidID, MsgAddErrID, nil, nil), nil
	}
	if res, ok := u.checkCount(in.Count); !ok {
		return res, nil
	}

	product, err := u.products.FindForCart(ctx, id, repo.ProductFilter{
		ExcludeDeleted:     !u.cfg.AllowDeleted,
		ExcludeUnpublished: !u.cfg.AllowUnpublished,
	})
	if errors.Is(err, repo.ErrNotFound) {
		st := u.totals(nil)
		return failure(CodeProductNotFound, MsgAddErrNF, &st, nil), nil
	}
	if err != nil {
		u.logger.Error("find product failed", zap.Int64("product_id", id), zap.Error(err))
		return Result{}, fmt.Errorf("find product %d: %w", id, err)
	}

	count := in.Count
	options := model.ParseOptions(in.Options)

	before := u.invoke(ctx, hook.BeforeAddToCart, hook.Payload{
		Product: &product,
		Count:   count,
		Options: options,
	})
	if !before.Accepted {
		return failure(CodeHookRejected, before.Message, nil, nil), nil
	}
	if before.Data != nil {
		count = before.Data.Count
		options = model.ParseOptions(before.Data.Options)
	}
	if res, ok := u.checkCount(count); !ok {
		return res, nil
	}

	key, err := DeriveKey(id, product.Price, product.Weight, options)
	if err != nil {
		u.logger.Error("derive cart key failed", zap.Int64("product_id", id), zap.Error(err))
		return Result{}, fmt.Errorf("derive key for product %d: %w", id, err)
	}
	if existing, ok := u.cart.Get(key); ok {
		// 足す前に上限と比べる（int64のあふれ対策）
		if count > u.cfg.MaxCount-existing.Count {
			st := u.totals(nil)
			return failure(CodeCountExceeded, MsgAddErrCount, &st, map[string]any{"count": count}), nil
		}
		return u.Change(ctx, key, existing.Count+count)
	}

	discountPrice := product.DiscountPrice()
	item := model.CartItem{
		Key:           key,
		ProductID:     id,
		Price:         product.Price,
		OldPrice:      product.OldPrice,
		DiscountPrice: discountPrice,
		DiscountCost:  discountPrice.Mul(decimal.NewFromInt(count)),
		Weight:        product.Weight,
		Count:         count,
		Options:       options,
		Ctx:           u.cartCtx,
	}

	cart, err := u.storage.Add(ctx, item)
	if err != nil {
		u.logger.Error("cart storage add failed", zap.String("key", key), zap.Error(err))
		return Result{}, fmt.Errorf("add to cart storage: %w", err)
	}
	u.cart = cart

	//ここで拒否されても追加は取り消さない
	after := u.invoke(ctx, hook.AfterAddToCart, hook.Payload{
		Product: &product,
		Key:     key,
		Count:   count,
		Options: options,
	})
	if !after.Accepted {
		return failure(CodeHookRejected, after.Message, nil, nil), nil
	}

	return success(MsgAddSuccess, u.Status(ctx, map[string]any{"key": key}), map[string]any{"count": count}), nil
}

// Change は明細の数量を変える。0以下なら削除。
func (u *CartUsecase) Change(ctx context.Context, key string, count int64) (Result, error) {
	item, ok := u.cart.Get(key)
	if !ok {
		st := u.totals(nil)
		return failure(CodeLineNotFound, MsgChangeError, &st, nil), nil
	}
	if count <= 0 {
		return u.Remove(ctx, key)
	}
	if count > u.cfg.MaxCount {
		st := u.totals(nil)
		return failure(CodeCountExceeded, MsgAddErrCount, &st, map[string]any{"count": count}), nil
	}

	before := u.invoke(ctx, hook.BeforeChangeInCart, hook.Payload{
		Key:   key,
		Count: count,
	})
	if !before.Accepted {
		return failure(CodeHookRejected, before.Message, nil, nil), nil
	}
	if before.Data != nil {
		count = before.Data.Count
	}
	if res, ok := u.checkCount(count); !ok {
		return res, nil
	}

	cart, err := u.storage.Change(ctx, key, count)
	if errors.Is(err, repo.ErrNotFound) {
		return u.lineGone(ctx, MsgChangeError)
	}
	if err != nil {
		u.logger.Error("cart storage change failed", zap.String("key", key), zap.Error(err))
		return Result{}, fmt.Errorf("change in cart storage: %w", err)
	}
	u.cart = cart

	after := u.invoke(ctx, hook.AfterChangeInCart, hook.Payload{
		Key:      key,
		Count:    count,
		Previous: &item,
	})
	if !after.Accepted {
		return failure(CodeHookRejected, after.Message, nil, nil), nil
	}

	cost := item.Price.Mul(decimal.NewFromInt(count))

	return success(MsgChangeSuccess, u.Status(ctx, map[string]any{"key": key, "cost": cost}), map[string]any{"count": count}), nil
}

// Remove は明細を削除する。
func (u *CartUsecase) Remove(ctx context.Context, key string) (Result, error) {
	item, ok := u.cart.Get(key)
	if !ok {
		return failure(CodeLineNotFound, MsgRemoveError, nil, nil), nil
	}

	before := u.invoke(ctx, hook.BeforeRemoveFromCart, hook.Payload{Key: key})
	if !before.Accepted {
		return failure(CodeHookRejected, before.Message, nil, nil), nil
	}

	cart, err := u.storage.Remove(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		return u.lineGone(ctx, MsgRemoveError)
	}
	if err != nil {
		u.logger.Error("cart storage remove failed", zap.String("key", key), zap.Error(err))
		return Result{}, fmt.Errorf("remove from cart storage: %w", err)
	}
	u.cart = cart

	after := u.invoke(ctx, hook.AfterRemoveFromCart, hook.Payload{Key: key, Previous: &item})
	if !after.Accepted {
		return failure(CodeHookRejected, after.Message, nil, nil), nil
	}

	return success(MsgRemoveSuccess, u.Status(ctx, nil), nil), nil
}

// Clean は現在のctxの明細をすべて消す。ctxを無視する設定なら全明細。
func (u *CartUsecase) Clean(ctx context.Context) (Result, error) {
	before := u.invoke(ctx, hook.BeforeEmptyCart, hook.Payload{})
	if !before.Accepted {
		return failure(CodeHookRejected, before.Message, nil, nil), nil
	}

	tag := u.cartCtx
	if u.cfg.IgnorePerContextScoping {
		tag = ""
	}
	cart, err := u.storage.Clean(ctx, tag)
	if err != nil {
		u.logger.Error("cart storage clean failed", zap.String("ctx", tag), zap.Error(err))
		return Result{}, fmt.Errorf("clean cart storage: %w", err)
	}
	u.cart = cart

	after := u.invoke(ctx, hook.AfterEmptyCart, hook.Payload{})
	if !after.Accepted {
		return failure(CodeHookRejected, after.Message, nil, nil), nil
	}

	return success(MsgCleanSuccess, u.Status(ctx, nil), nil), nil
}

// Status は集計値を返す。onGetStatusCart フックが全体を差し替えられる。
// total_positions だけはctxで絞らない全明細数。
func (u *CartUsecase) Status(ctx context.Context, extra map[string]any) model.CartStatus {
	st := u.totals(extra)

	res := u.invoke(ctx, hook.OnGetStatusCart, hook.Payload{Status: &st})
	if res.Accepted && res.Data != nil && res.Data.Status != nil {
		st = *res.Data.Status
	}
	return st
}

// Get は現在のctxで絞ったカートのコピーを返す。
func (u *CartUsecase) Get() model.Cart {
	return u.cart.Filter(u.visible)
}

// Set はカート全体を置き換える（ログイン時の復元など）。フックは呼ばない。
func (u *CartUsecase) Set(ctx context.Context, cart model.Cart) error {
	c, err := u.storage.Set(ctx, cart)
	if err != nil {
		u.logger.Error("cart storage set failed", zap.Int("positions", cart.Len()), zap.Error(err))
		return fmt.Errorf("set cart storage: %w", err)
	}
	u.cart = c
	return nil
}

func (u *CartUsecase) totals(extra map[string]any) model.CartStatus {
	st := model.CartStatus{
		TotalCost:      decimal.Zero,
		TotalWeight:    decimal.Zero,
		TotalDiscount:  decimal.Zero,
		TotalPositions: u.cart.Len(),
	}
	for _, it := range u.cart.Items() {
		if !u.visible(it) {
			continue
		}
		n := decimal.NewFromInt(it.Count)
		st.TotalCount += it.Count
		st.TotalCost = st.TotalCost.Add(it.Price.Mul(n))
		st.TotalWeight = st.TotalWeight.Add(it.Weight.Mul(n))
		st.TotalDiscount = st.TotalDiscount.Add(it.DiscountPrice.Mul(n))
	}
	if len(extra) > 0 {
		st.Extra = make(map[string]any, len(extra))
		for k, v := range extra {
			st.Extra[k] = v
		}
	}
	return st
}

// 有効なctx・絞ったカート・全明細を載せてフックを呼ぶ
func (u *CartUsecase) invoke(ctx context.Context, ev hook.Event, p hook.Payload) hook.Response {
	p.Ctx = u.cartCtx
	p.Cart = u.Get()
	p.AllLines = u.cart.Clone()
	return u.hooks.Invoke(ctx, ev, p)
}

func (u *CartUsecase) visible(it model.CartItem) bool {
	return u.cfg.IgnorePerContextScoping || it.Ctx == "" || it.Ctx == u.cartCtx
}

// 0 < count <= MaxCount
func (u *CartUsecase) checkCount(count int64) (Result, bool) {
	if count <= 0 {
		st := u.totals(nil)
		return failure(CodeInvalidCount, MsgAddErrCount, &st, map[string]any{"count": count}), false
	}
	if count > u.cfg.MaxCount {
		st := u.totals(nil)
		return failure(CodeCountExceeded, MsgAddErrCount, &st, map[string]any{"count": count}), false
	}
	return Result{}, true
}

// 保存先に明細が無かった場合。手元の状態を読み直す。
func (u *CartUsecase) lineGone(ctx context.Context, message string) (Result, error) {
	cart, err := u.storage.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reload cart: %w", err)
	}
	u.cart = cart
	st := u.totals(nil)
	return failure(CodeLineNotFound, message, &st, nil), nil
}
