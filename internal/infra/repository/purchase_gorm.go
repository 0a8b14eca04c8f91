package repository

import (
	"context"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type PurchaseGormRepository struct {
	db *gorm.DB
}

func NewPurchaseGormRepository(db *gorm.DB) *PurchaseGormRepository {
	return &PurchaseGormRepository{db: db}
}

func (r *PurchaseGormRepository) Create(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

func (r *PurchaseGormRepository) List(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	var items []model.Purchase
	err := r.db.WithContext(ctx).
		Scopes(
			whereIf("user_id", f.UserID),
			whereIf("product_id", f.ProductID),
			paginate(f.Limit, f.Offset),
		).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Purchase{}, err
	}
	return items, nil
}

func (r *PurchaseGormRepository) SumQuantity(ctx context.Context, userID int64, productID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Select("COALESCE(SUM(quantity), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
