package model

import "time"

// カート操作の種類
type AuditAction string

const (
	AuditActionAddToCart      AuditAction = "ADD_TO_CART"
	AuditActionChangeInCart   AuditAction = "CHANGE_IN_CART"
	AuditActionRemoveFromCart AuditAction = "REMOVE_FROM_CART"
	AuditActionEmptyCart      AuditAction = "EMPTY_CART"
)

// 何に対する操作か
type AuditResourceType string

const (
	//明細に対する操作。
	AuditResourceCartItem AuditResourceType = "cart_item"

	//カート全体に対する操作。
	AuditResourceCart AuditResourceType = "cart"
)

// カート操作の監査ログ。
// 「誰の」「どのカートで」「何を」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//カートの持ち主（user:1 / session:xxx）。
	Actor string `gorm:"type:varchar(80);not null;index" json:"actor"`

	//Actionは操作の種類（ADD_TO_CART など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（cart_item / cart）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//明細のKey（カート全体の場合は空）。
	ResourceKey string `gorm:"type:varchar(64);index" json:"resource_key"`

	//商品ID（カート全体の場合は0）。
	ProductID int64 `gorm:"not null;default:0;index" json:"product_id"`

	//スコープ（web など）。
	Ctx string `gorm:"type:varchar(50)" json:"ctx"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
