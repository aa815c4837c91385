package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// カタログ側の商品。カートからは参照のみ。
// IsActive は公開フラグ、DeletedAt はソフト削除。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	OldPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"old_price"`
	Weight      decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"weight"`
	Stock       int64           `gorm:"not null" json:"stock"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// 旧価格との差額。旧価格が安い場合は0。
func (p Product) DiscountPrice() decimal.Decimal {
	d := p.OldPrice.Sub(p.Price)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
