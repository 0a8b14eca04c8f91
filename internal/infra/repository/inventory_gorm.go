package repository

import (
	"context"
	"fmt"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の増減は商品行のquantityだけを触る（論理削除済みの行はGORMのスコープで対象外）
func (r *InventoryGormRepository) products(ctx context.Context, productID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID)
}

// 在庫が足りるときだけ減らす。falseは「足りない or 商品がない」
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrease stock: quantity must be > 0, got %d", qty)
	}
	res := r.products(ctx, productID).
		Where("quantity >= ?", qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// 在庫戻し（返品承認）。削除済みの商品にはErrNotFound
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("increase stock: quantity must be > 0, got %d", qty)
	}
	res := r.products(ctx, productID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 増減履歴。deltaが0の行は残さない
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if adj.Delta == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&adj).Error)
}
