package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type DiscountGormRepository struct {
	db *gorm.DB
}

func NewDiscountGormRepository(db *gorm.DB) *DiscountGormRepository {
	return &DiscountGormRepository{db: db}
}

// product / free_product を展開して返す
func (r *DiscountGormRepository) ListExpanded(ctx context.Context) ([]model.Discount, error) {
	var list []model.Discount
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("FreeProduct").
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.Discount{}, err
	}
	return list, nil
}

func (r *DiscountGormRepository) FindByID(ctx context.Context, id int64) (model.Discount, error) {
	var d model.Discount
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return model.Discount{}, translateError(err)
	}
	return d, nil
}

// 完全一致のみ（「N個以上」は見ない）
func (r *DiscountGormRepository) FindByProductAndRequired(ctx context.Context, productID int64, requiredQty int64) (model.Discount, bool, error) {
	var d model.Discount
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND required_quantity = ?", productID, requiredQty).
		First(&d).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Discount{}, false, nil
	}
	if err != nil {
		return model.Discount{}, false, err
	}
	return d, true, nil
}

func (r *DiscountGormRepository) Create(ctx context.Context, d model.Discount) (model.Discount, error) {
	//展開用のフィールドはupsertさせない
	d.Product = nil
	d.FreeProduct = nil

	if err := r.db.WithContext(ctx).Create(&d).Error; err != nil {
		return model.Discount{}, translateError(err)
	}
	return d, nil
}

func (r *DiscountGormRepository) Update(ctx context.Context, d model.Discount) error {
	res := r.db.WithContext(ctx).Model(&model.Discount{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"product_id":        d.ProductID,
		"required_quantity": d.RequiredQuantity,
		"free_product_id":   d.FreeProductID,
		"free_quantity":     d.FreeQuantity,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *DiscountGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Discount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
