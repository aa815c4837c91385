package hook

import (
	"context"
	"sync"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"go.uber.org/zap"
)

// 拡張ポイントの名前
type Event string

const (
	BeforeAddToCart      Event = "beforeAddToCart"
	AfterAddToCart       Event = "afterAddToCart"
	BeforeChangeInCart   Event = "beforeChangeInCart"
	AfterChangeInCart    Event = "afterChangeInCart"
	BeforeRemoveFromCart Event = "beforeRemoveFromCart"
	AfterRemoveFromCart  Event = "afterRemoveFromCart"
	BeforeEmptyCart      Event = "beforeEmptyCart"
	AfterEmptyCart       Event = "afterEmptyCart"
	OnGetStatusCart      Event = "onGetStatusCart"
)

// フックに渡す値。イベントによって使う項目が違う。
//
//	before/afterAddToCart:  Product, Count, Options (afterはKeyも)
//	before/afterChangeInCart: Key, Count
//	before/afterRemoveFromCart: Key
//	onGetStatusCart: Status
//
// Cart は現在のctxで絞ったスナップショット、AllLines はctxで絞らない全明細。
// Ctx は有効なctx。
// Previous は after系で、変更・削除される前の明細。
type Payload struct {
	Product  *model.Product
	Key      string
	Count    int64
	Options  model.Options
	Status   *model.CartStatus
	Cart     model.Cart
	AllLines model.Cart
	Ctx      string
	Previous *model.CartItem
}

// フックの結果。Data が nil なら入力のまま。
type Response struct {
	Accepted bool
	Message  string
	Data     *Payload
}

func Accept() Response {
	return Response{Accepted: true}
}

// 入力を書き換えて通す
func Modify(p Payload) Response {
	return Response{Accepted: true, Data: &p}
}

func Reject(message string) Response {
	return Response{Accepted: false, Message: message}
}

// 同期で呼ばれる。カートの変更系を呼び返してはいけない。
type Handler func(ctx context.Context, p Payload) Response

// イベント名ごとのハンドラ登録簿。
type Pipeline struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
	logger   *zap.Logger
}

func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		handlers: make(map[Event][]Handler),
		logger:   logger,
	}
}

// 登録順に呼ばれる
func (p *Pipeline) On(ev Event, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[ev] = append(p.handlers[ev], h)
}

// ハンドラを順に呼ぶ。前のハンドラの書き換え結果が次に渡る。
// 最初の拒否で打ち切る。通った場合は Data に最終的な値が入る。
func (p *Pipeline) Invoke(ctx context.Context, ev Event, payload Payload) Response {
	p.mu.RLock()
	hs := append([]Handler(nil), p.handlers[ev]...)
	p.mu.RUnlock()

	cur := payload
	for _, h := range hs {
		res := h(ctx, cur)
		if !res.Accepted {
			msg := res.Message
			if msg == "" {
				msg = string(ev) + " rejected"
			}
			p.logger.Info("hook rejected", zap.String("event", string(ev)), zap.String("message", msg))
			return Response{Accepted: false, Message: msg}
		}
		if res.Data != nil {
			cur = *res.Data
		}
	}
	return Response{Accepted: true, Message: "", Data: &cur}
}
