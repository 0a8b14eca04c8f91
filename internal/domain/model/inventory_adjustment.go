package model

import "time"

type AdjustmentReason string

const (
	AdjustmentPurchase       AdjustmentReason = "purchase"
	AdjustmentDiscountFree   AdjustmentReason = "discount_free"
	AdjustmentReturnAccepted AdjustmentReason = "return_accepted"
	AdjustmentAdminUpdate    AdjustmentReason = "admin_update"
)

//在庫の増減履歴（増えたら正、減ったら負）

type InventoryAdjustment struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64            `gorm:"not null;index" json:"product_id"`
	ActorUserID int64            `gorm:"not null;index" json:"actor_user_id"`
	Delta       int64            `gorm:"not null" json:"delta"`
	Reason      AdjustmentReason `gorm:"type:varchar(50);not null" json:"reason"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
