package hook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"go.uber.org/zap"
)

// AuditTrail はカートの変更を監査ログに残す。
// 書き込みに失敗しても操作は止めない。
type AuditTrail struct {
	logs   repo.AuditLogRepository
	logger *zap.Logger
	now    func() time.Time
}

// DI
func NewAuditTrail(logs repo.AuditLogRepository, logger *zap.Logger) *AuditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditTrail{logs: logs, logger: logger, now: time.Now}
}

func (a *AuditTrail) Register(p *Pipeline) {
	p.On(AfterAddToCart, a.handler(model.AuditActionAddToCart))
	p.On(AfterChangeInCart, a.handler(model.AuditActionChangeInCart))
	p.On(AfterRemoveFromCart, a.handler(model.AuditActionRemoveFromCart))
	p.On(AfterEmptyCart, a.handler(model.AuditActionEmptyCart))
}

func (a *AuditTrail) handler(action model.AuditAction) Handler {
	return func(ctx context.Context, p Payload) Response {
		log := a.entry(ctx, action, p)
		if err := a.logs.Create(ctx, log); err != nil {
			a.logger.Warn("audit log write failed",
				zap.String("action", string(action)),
				zap.String("actor", log.Actor),
				zap.Error(err),
			)
		}
		return Accept()
	}
}

func (a *AuditTrail) entry(ctx context.Context, action model.AuditAction, p Payload) model.AuditLog {
	log := model.AuditLog{
		Actor:        ActorFrom(ctx),
		Action:       action,
		ResourceType: model.AuditResourceCartItem,
		ResourceKey:  p.Key,
		Ctx:          p.Ctx,
		CreatedAt:    a.now(),
	}

	if action == model.AuditActionEmptyCart {
		log.ResourceType = model.AuditResourceCart
		log.AfterJSON = toJSON(p.Cart)
		return log
	}

	if p.Product != nil {
		log.ProductID = p.Product.ID
	}
	if p.Previous != nil {
		log.ProductID = p.Previous.ProductID
		log.BeforeJSON = toJSON(p.Previous)
	}
	if it, ok := p.AllLines.Get(p.Key); ok {
		log.ProductID = it.ProductID
		log.AfterJSON = toJSON(it)
	}
	return log
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
