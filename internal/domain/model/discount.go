package model

import "time"

// 「ProductIDをRequiredQuantity個買うと、FreeProductIDがFreeQuantity個無料」のルール。
// (product_id, required_quantity) は一意。
type Discount struct {
	ID               int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        int64 `gorm:"not null;uniqueIndex:ux_discounts_product_required" json:"product_id"`
	RequiredQuantity int64 `gorm:"not null;uniqueIndex:ux_discounts_product_required" json:"required_quantity"`
	FreeProductID    int64 `gorm:"not null;index" json:"free_product_id"`
	FreeQuantity     int64 `gorm:"not null" json:"free_quantity"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	//一覧表示用の展開（削除済み商品はnil）
	Product     *Product `gorm:"foreignKey:ProductID" json:"product"`
	FreeProduct *Product `gorm:"foreignKey:FreeProductID" json:"free_product"`
}
