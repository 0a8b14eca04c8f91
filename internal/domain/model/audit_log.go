package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	AuditActionCreateProduct  AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct  AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct  AuditAction = "DELETE_PRODUCT"
	AuditActionCreateDiscount AuditAction = "CREATE_DISCOUNT"
	AuditActionUpdateDiscount AuditAction = "UPDATE_DISCOUNT"
	AuditActionDeleteDiscount AuditAction = "DELETE_DISCOUNT"
	AuditActionAcceptReturn   AuditAction = "ACCEPT_RETURN"
	AuditActionRejectReturn   AuditAction = "REJECT_RETURN"
	AuditActionForceLogout    AuditAction = "FORCE_LOGOUT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct       AuditResourceType = "product"
	AuditResourceDiscount      AuditResourceType = "discount"
	AuditResourceReturnRequest AuditResourceType = "return_request"
	AuditResourceUser          AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
