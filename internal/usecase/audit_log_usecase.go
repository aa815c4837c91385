package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

// DI
func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

// 管理者向け一覧の入力（空文字は未指定）
type AuditLogListInput struct {
	Actor     string
	Action    string
	ProductID int64
	From      string
	To        string
	Limit     int
	Offset    int
}

func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	f := repo.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}

	if a := strings.TrimSpace(in.Actor); a != "" {
		f.Actor = &a
	}
	if in.Action != "" {
		action := model.AuditAction(strings.ToUpper(in.Action))
		switch action {
		case model.AuditActionAddToCart, model.AuditActionChangeInCart,
			model.AuditActionRemoveFromCart, model.AuditActionEmptyCart:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if in.ProductID < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.ProductID > 0 {
		id := in.ProductID
		f.ProductID = &id
	}

	from, err := parseTime(in.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseTime(in.To, "to")
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}
	f.CreatedFrom, f.CreatedTo = from, to

	logs, err := u.logs.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// RFC3339
func parseTime(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &t, nil
}
