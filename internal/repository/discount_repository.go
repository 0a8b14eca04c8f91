package repository

import (
	"context"

	"inventory/internal/domain/model"
)

type DiscountRepository interface {
	// 商品を展開して一覧を返す
	ListExpanded(ctx context.Context) ([]model.Discount, error)
	FindByID(ctx context.Context, id int64) (model.Discount, error)

	// product_idとrequired_quantityが完全一致するルール（無ければfalse）
	FindByProductAndRequired(ctx context.Context, productID int64, requiredQty int64) (model.Discount, bool, error)

	Create(ctx context.Context, d model.Discount) (model.Discount, error)
	Update(ctx context.Context, d model.Discount) error
	Delete(ctx context.Context, id int64) error
}
