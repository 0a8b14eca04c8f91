package repository

import (
	"context"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type ReturnRequestGormRepository struct {
	db *gorm.DB
}

func NewReturnRequestGormRepository(db *gorm.DB) *ReturnRequestGormRepository {
	return &ReturnRequestGormRepository{db: db}
}

func (r *ReturnRequestGormRepository) Create(ctx context.Context, rr model.ReturnRequest) (model.ReturnRequest, error) {
	rr.User = nil
	rr.Product = nil

	if err := r.db.WithContext(ctx).Create(&rr).Error; err != nil {
		return model.ReturnRequest{}, err
	}
	return rr, nil
}

func (r *ReturnRequestGormRepository) FindByID(ctx context.Context, id int64) (model.ReturnRequest, error) {
	var rr model.ReturnRequest
	if err := r.db.WithContext(ctx).First(&rr, id).Error; err != nil {
		return model.ReturnRequest{}, translateError(err)
	}
	return rr, nil
}

// userとproductを展開（削除済み商品はnil）
func (r *ReturnRequestGormRepository) ListExpanded(ctx context.Context, f repo.ReturnRequestFilter) ([]model.ReturnRequest, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Product")

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var list []model.ReturnRequest
	if err := q.Order("id desc").Find(&list).Error; err != nil {
		return []model.ReturnRequest{}, err
	}
	return list, nil
}

func (r *ReturnRequestGormRepository) SumAcceptedQuantity(ctx context.Context, userID int64, productID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ReturnRequest{}).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, model.ReturnStatusAccepted).
		Select("COALESCE(SUM(quantity), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// status = From のときだけ更新する（二重承認・二重却下を防ぐ）
func (r *ReturnRequestGormRepository) Transition(ctx context.Context, id int64, t repo.ReturnTransition) (bool, error) {
	decidedBy := t.DecidedBy
	decidedAt := t.DecidedAt

	res := r.db.WithContext(ctx).
		Model(&model.ReturnRequest{}).
		Where("id = ? AND status = ?", id, t.From).
		Updates(map[string]interface{}{
			"status":     t.To,
			"reason":     t.Reason,
			"decided_by": &decidedBy,
			"decided_at": &decidedAt,
			"updated_at": decidedAt,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
