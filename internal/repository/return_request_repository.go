package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
)

type ReturnRequestFilter struct {
	Status *model.ReturnStatus
	UserID *int64
}

// 状態遷移の入力
type ReturnTransition struct {
	From      model.ReturnStatus
	To        model.ReturnStatus
	DecidedBy int64
	DecidedAt time.Time
	Reason    string
}

type ReturnRequestRepository interface {
	Create(ctx context.Context, r model.ReturnRequest) (model.ReturnRequest, error)
	FindByID(ctx context.Context, id int64) (model.ReturnRequest, error)

	// userとproductを展開して一覧を返す
	ListExpanded(ctx context.Context, f ReturnRequestFilter) ([]model.ReturnRequest, error)

	// (user, product) の承認済み返品数量の合計
	SumAcceptedQuantity(ctx context.Context, userID int64, productID int64) (int64, error)

	// statusがFromのときだけToへ更新。更新できなければfalse
	Transition(ctx context.Context, id int64, t ReturnTransition) (bool, error)
}
