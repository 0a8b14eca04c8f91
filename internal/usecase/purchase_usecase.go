package usecase

import (
	"context"
	"errors"
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	repo "inventory/internal/repository"
)

type PurchaseUsecase struct {
	tx        repo.TransactionManager
	purchase  repo.PurchaseRepository
	discounts repo.DiscountRepository
	locker    Locker
	clock     Clock
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// DI
func NewPurchaseUsecase(
	tx repo.TransactionManager,
	purchase repo.PurchaseRepository,
	discounts repo.DiscountRepository,
	locker Locker,
	clock Clock,
	log *logger.Logger,
	m *metrics.Metrics,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		tx:        tx,
		purchase:  purchase,
		discounts: discounts,
		locker:    locker,
		clock:     clock,
		log:       log,
		metrics:   m,
	}
}

type PurchaseInput struct {
	ActorUserID int64
	ActorRole   model.Role

	// 互換用（bodyのuser_id）。指定時は本人か管理者のみ
	UserID *int64

	ProductID int64
	Quantity  int64
}

type PurchaseOutput struct {
	Message  string         `json:"message"`
	Purchase model.Purchase `json:"purchase"`
}

func (u *PurchaseUsecase) Purchase(ctx context.Context, in PurchaseInput) (PurchaseOutput, error) {
	if in.ActorUserID <= 0 {
		return PurchaseOutput{}, errUnauthorized()
	}
	buyer, err := resolveSubject(in.ActorUserID, in.ActorRole, in.UserID)
	if err != nil {
		return PurchaseOutput{}, err
	}
	if in.ProductID <= 0 {
		return PurchaseOutput{}, NewHTTPError(http.StatusBadRequest, "product_id required")
	}
	if in.Quantity <= 0 {
		return PurchaseOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	ctx = u.log.WithFields(ctx, map[string]any{
		"user_id":    buyer,
		"product_id": in.ProductID,
		"quantity":   in.Quantity,
	})

	// 無料商品もロックしたいので、先にルールを見ておく（tx内で必ず読み直す）
	keys := []string{productLockKey(in.ProductID)}
	d, ok, err := u.discounts.FindByProductAndRequired(ctx, in.ProductID, in.Quantity)
	if err != nil {
		u.log.Error(ctx, "discount lookup failed", err)
		u.metrics.IncPurchase("error")
		return PurchaseOutput{}, errDB()
	}
	if ok {
		keys = append(keys, productLockKey(d.FreeProductID))
	}

	release, err := u.locker.Acquire(ctx, keys...)
	if err != nil {
		u.log.Warn(ctx, "product lock busy")
		u.metrics.IncPurchase("busy")
		return PurchaseOutput{}, errBusy()
	}
	defer release()

	var out model.Purchase
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return errProductNotFound()
		}
		if err != nil {
			return errDB()
		}
		if p.Quantity < in.Quantity {
			return errInsufficientStock()
		}

		//在庫減算（quantity >= n のときだけ）
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return errDB()
		}
		if !ok {
			return errInsufficientStock()
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   in.ProductID,
			ActorUserID: buyer,
			Delta:       -in.Quantity,
			Reason:      model.AdjustmentPurchase,
			CreatedAt:   u.clock.Now(),
		}); err != nil {
			return errDB()
		}

		rec := model.Purchase{
			UserID:      buyer,
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
			PurchasedAt: u.clock.Now(),
		}

		// 購入数量が必要数量と完全一致したときだけ割引
		d, found, err := r.Discounts().FindByProductAndRequired(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return errDB()
		}
		if found {
			granted, err := grantFreeProduct(ctx, r, d, buyer, u.clock)
			if err != nil {
				return err
			}
			discountID := d.ID
			freeProductID := d.FreeProductID
			rec.DiscountID = &discountID
			rec.FreeProductID = &freeProductID
			rec.FreeQuantity = granted
		}

		out, err = r.Purchases().Create(ctx, rec)
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		u.metrics.IncPurchase(purchaseResult(err))
		return PurchaseOutput{}, wrapTxError(ctx, u.log, "purchase failed", err)
	}

	u.metrics.IncPurchase("ok")
	u.metrics.AddFreeUnits(out.FreeQuantity)
	u.log.Info(u.log.WithFields(ctx, map[string]any{
		"purchase_id":   out.ID,
		"free_quantity": out.FreeQuantity,
	}), "purchase completed")

	return PurchaseOutput{Message: "Purchase successful", Purchase: out}, nil
}

// 本人の購入履歴
func (u *PurchaseUsecase) ListMine(ctx context.Context, userID int64, limit int, offset int) ([]model.Purchase, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}
	return u.list(ctx, repo.PurchaseFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (u *PurchaseUsecase) AdminList(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	return u.list(ctx, f)
}

func (u *PurchaseUsecase) list(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	if f.Limit < 0 || f.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	items, err := u.purchase.List(ctx, f)
	if err != nil {
		u.log.Error(ctx, "list purchases failed", err)
		return nil, errDB()
	}
	return items, nil
}

// 無料商品を在庫の範囲で付与する。付与できた数量を返す。
func grantFreeProduct(ctx context.Context, r repo.TxRepos, d model.Discount, buyer int64, clock Clock) (int64, error) {
	free, err := r.Products().FindByID(ctx, d.FreeProductID)
	if errors.Is(err, repo.ErrNotFound) {
		// 無料商品が削除済みなら付与しない
		return 0, nil
	}
	if err != nil {
		return 0, errDB()
	}

	granted := d.FreeQuantity
	if free.Quantity < granted {
		granted = free.Quantity
	}
	if granted <= 0 {
		return 0, nil
	}

	ok, err := r.Inventory().DecreaseStockIfEnough(ctx, d.FreeProductID, granted)
	if err != nil {
		return 0, errDB()
	}
	if !ok {
		return 0, nil
	}
	if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   d.FreeProductID,
		ActorUserID: buyer,
		Delta:       -granted,
		Reason:      model.AdjustmentDiscountFree,
		CreatedAt:   clock.Now(),
	}); err != nil {
		return 0, errDB()
	}
	return granted, nil
}

// bodyのuser_idが来たときの扱い
func resolveSubject(actorID int64, actorRole model.Role, requested *int64) (int64, error) {
	if requested == nil || *requested == actorID {
		return actorID, nil
	}
	if actorRole != model.RoleAdmin {
		return 0, NewHTTPError(http.StatusForbidden, "user_id does not match the authenticated user")
	}
	if *requested <= 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	return *requested, nil
}

func purchaseResult(err error) string {
	he, ok := AsHTTPError(err)
	if !ok {
		return "error"
	}
	switch he.Kind {
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "error"
	default:
		return string(he.Kind)
	}
}
