package repository

import (
	"context"

	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products  repo.ProductRepository
	inventory repo.InventoryRepository
	discounts repo.DiscountRepository
	purchases repo.PurchaseRepository
	returns   repo.ReturnRequestRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Products() repo.ProductRepository      { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository   { return r.inventory }
func (r *txReposGorm) Discounts() repo.DiscountRepository    { return r.discounts }
func (r *txReposGorm) Purchases() repo.PurchaseRepository    { return r.purchases }
func (r *txReposGorm) Returns() repo.ReturnRequestRepository { return r.returns }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository    { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:  NewProductGormRepository(tx),
			inventory: NewInventoryGormRepository(tx),
			discounts: NewDiscountGormRepository(tx),
			purchases: NewPurchaseGormRepository(tx),
			returns:   NewReturnRequestGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
