package model

import "time"

// 購入履歴。返品承認時の「購入済み数量」の根拠になる。
type Purchase struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64 `gorm:"not null;index:ix_purchases_user_product" json:"user_id"`
	ProductID int64 `gorm:"not null;index:ix_purchases_user_product" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`

	//適用された割引（無ければnil）
	DiscountID    *int64 `gorm:"index" json:"discount_id"`
	FreeProductID *int64 `json:"free_product_id"`

	//実際に付与した無料数量（無料商品の在庫が足りない分は付与しない）
	FreeQuantity int64 `gorm:"not null;default:0" json:"free_quantity"`

	PurchasedAt time.Time `gorm:"not null;index" json:"purchased_at"`
}
