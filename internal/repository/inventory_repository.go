package repository

import (
	"context"

	"inventory/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（返品承認など）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 増減履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
