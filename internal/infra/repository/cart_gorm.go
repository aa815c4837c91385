package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cart_items の1行。オーナーごとに line_key が一意。
type CartItemRow struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	OwnerKey      string          `gorm:"type:varchar(80);not null;uniqueIndex:idx_cart_items_owner_line"`
	LineKey       string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_items_owner_line"`
	ProductID     int64           `gorm:"not null;index"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	OldPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DiscountPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Weight        decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	Count         int64           `gorm:"not null"`
	Options       model.Options   `gorm:"type:jsonb;serializer:json"`
	Ctx           string          `gorm:"type:varchar(50);not null;default:'';index"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime"`
}

func (CartItemRow) TableName() string {
	return "cart_items"
}

func (r CartItemRow) toModel() model.CartItem {
	return model.CartItem{
		Key:           r.LineKey,
		ProductID:     r.ProductID,
		Price:         r.Price,
		OldPrice:      r.OldPrice,
		DiscountPrice: r.DiscountPrice,
		DiscountCost:  r.DiscountPrice.Mul(decimal.NewFromInt(r.Count)),
		Weight:        r.Weight,
		Count:         r.Count,
		Options:       r.Options,
		Ctx:           r.Ctx,
	}
}

func newCartItemRow(ownerKey string, it model.CartItem) CartItemRow {
	return CartItemRow{
		OwnerKey:      ownerKey,
		LineKey:       it.Key,
		ProductID:     it.ProductID,
		Price:         it.Price,
		OldPrice:      it.OldPrice,
		DiscountPrice: it.DiscountPrice,
		Weight:        it.Weight,
		Count:         it.Count,
		Options:       it.Options.Clone(),
		Ctx:           it.Ctx,
	}
}

// アカウントに紐づけてDBに保存するカート。
// 変更はトランザクション内でオーナーの行を FOR UPDATE でロックしてから行う。
type CartGormStorage struct {
	db       *gorm.DB
	ownerKey string
	cartCtx  string
}

// DI
func NewCartGormStorage(db *gorm.DB, ownerKey string) *CartGormStorage {
	return &CartGormStorage{db: db, ownerKey: ownerKey}
}

var _ repo.CartStorage = (*CartGormStorage)(nil)

func (r *CartGormStorage) SetContext(cartCtx string) {
	r.cartCtx = cartCtx
}

// オーナーの明細を追加順で取得
func (r *CartGormStorage) Get(ctx context.Context) (model.Cart, error) {
	return r.list(r.db.WithContext(ctx))
}

// 明細を追加。同じKeyが既にあれば上書き
func (r *CartGormStorage) Add(ctx context.Context, item model.CartItem) (model.Cart, error) {
	if item.Ctx == "" {
		item.Ctx = r.cartCtx
	}
	return r.mutate(ctx, func(tx *gorm.DB) error {
		row := newCartItemRow(r.ownerKey, item)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}, {Name: "line_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "old_price", "discount_price", "weight", "count", "options", "ctx", "updated_at"}),
		}).Create(&row).Error
	})
}

// 明細を削除
func (r *CartGormStorage) Remove(ctx context.Context, key string) (model.Cart, error) {
	return r.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Where("owner_key = ? AND line_key = ?", r.ownerKey, key).Delete(&CartItemRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 明細の数量を更新
func (r *CartGormStorage) Change(ctx context.Context, key string, count int64) (model.Cart, error) {
	return r.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&CartItemRow{}).
			Where("owner_key = ? AND line_key = ?", r.ownerKey, key).
			Update("count", count)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// ctxの明細（ctx未設定を含む）を削除。ctxが空なら全明細
func (r *CartGormStorage) Clean(ctx context.Context, cartCtx string) (model.Cart, error) {
	return r.mutate(ctx, func(tx *gorm.DB) error {
		q := tx.Where("owner_key = ?", r.ownerKey)
		if cartCtx != "" {
			q = q.Where("(ctx = ? OR ctx = '')", cartCtx)
		}
		return q.Delete(&CartItemRow{}).Error
	})
}

// オーナーの明細を丸ごと入れ替え
func (r *CartGormStorage) Set(ctx context.Context, cart model.Cart) (model.Cart, error) {
	return r.mutate(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("owner_key = ?", r.ownerKey).Delete(&CartItemRow{}).Error; err != nil {
			return err
		}
		if cart.Len() == 0 {
			return nil
		}

		rows := make([]CartItemRow, 0, cart.Len())
		for _, it := range cart.Items() {
			rows = append(rows, newCartItemRow(r.ownerKey, it))
		}
		return tx.Create(&rows).Error
	})
}

// ロック→変更→読み直し を1トランザクションで行う
func (r *CartGormStorage) mutate(ctx context.Context, fn func(tx *gorm.DB) error) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&CartItemRow{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_key = ?", r.ownerKey).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if err := fn(tx); err != nil {
			return err
		}

		c, err := r.list(tx)
		if err != nil {
			return err
		}
		cart = c
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormStorage) list(db *gorm.DB) (model.Cart, error) {
	var rows []CartItemRow

	if err := db.
		Where("owner_key = ?", r.ownerKey).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return model.Cart{}, err
	}

	items := make([]model.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return model.NewCart(items...), nil
}
