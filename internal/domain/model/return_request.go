package model

import "time"

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "PENDING"
	ReturnStatusAccepted ReturnStatus = "ACCEPTED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
)

// 終端（ACCEPTED / REJECTED）からは遷移しない
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusAccepted || s == ReturnStatusRejected
}

// 返品申請。在庫は管理者の承認時にだけ戻す。
type ReturnRequest struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64        `gorm:"not null;index:ix_return_requests_user_product" json:"user_id"`
	ProductID int64        `gorm:"not null;index:ix_return_requests_user_product" json:"product_id"`
	Quantity  int64        `gorm:"not null" json:"quantity"`
	Status    ReturnStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//却下理由など
	Reason string `gorm:"type:varchar(255);not null;default:''" json:"reason"`

	//判断した管理者と時刻
	DecidedBy *int64     `json:"decided_by"`
	DecidedAt *time.Time `json:"decided_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
