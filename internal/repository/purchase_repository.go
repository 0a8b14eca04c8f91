package repository

import (
	"context"

	"inventory/internal/domain/model"
)

type PurchaseFilter struct {
	UserID    *int64
	ProductID *int64
	Limit     int
	Offset    int
}

type PurchaseRepository interface {
	Create(ctx context.Context, p model.Purchase) (model.Purchase, error)
	List(ctx context.Context, f PurchaseFilter) ([]model.Purchase, error)

	// (user, product) の購入数量の合計
	SumQuantity(ctx context.Context, userID int64, productID int64) (int64, error)
}
