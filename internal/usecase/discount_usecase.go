package usecase

import (
	"context"
	"errors"
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"
)

type DiscountUsecase struct {
	discounts repo.DiscountRepository
	tx        repo.TransactionManager
	clock     Clock
	log       *logger.Logger
}

// DI
func NewDiscountUsecase(discounts repo.DiscountRepository, tx repo.TransactionManager, clock Clock, log *logger.Logger) *DiscountUsecase {
	return &DiscountUsecase{
		discounts: discounts,
		tx:        tx,
		clock:     clock,
		log:       log,
	}
}

// 対象商品・無料商品を展開した一覧
func (u *DiscountUsecase) List(ctx context.Context) ([]model.Discount, error) {
	items, err := u.discounts.ListExpanded(ctx)
	if err != nil {
		u.log.Error(ctx, "list discounts failed", err)
		return nil, errDB()
	}
	return items, nil
}

// Lookup は (productID, requiredQuantity) が完全一致するルールを返す。無ければ false。
func (u *DiscountUsecase) Lookup(ctx context.Context, productID int64, requiredQuantity int64) (model.Discount, bool, error) {
	if productID <= 0 || requiredQuantity <= 0 {
		return model.Discount{}, false, NewHTTPError(http.StatusBadRequest, "product_id and quantity must be > 0")
	}
	d, ok, err := u.discounts.FindByProductAndRequired(ctx, productID, requiredQuantity)
	if err != nil {
		return model.Discount{}, false, errDB()
	}
	return d, ok, nil
}

type DiscountInput struct {
	ProductID        int64
	RequiredQuantity int64
	FreeProductID    int64
	FreeQuantity     int64
}

func (u *DiscountUsecase) AdminCreateDiscount(ctx context.Context, adminUserID int64, in DiscountInput) (model.Discount, error) {
	if adminUserID <= 0 {
		return model.Discount{}, errUnauthorized()
	}
	d := model.Discount{
		ProductID:        in.ProductID,
		RequiredQuantity: in.RequiredQuantity,
		FreeProductID:    in.FreeProductID,
		FreeQuantity:     in.FreeQuantity,
	}
	if err := validateDiscount(d); err != nil {
		return model.Discount{}, err
	}

	var created model.Discount
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := checkDiscountRefs(ctx, r, d); err != nil {
			return err
		}

		var err error
		created, err = r.Discounts().Create(ctx, d)
		if errors.Is(err, repo.ErrDuplicate) {
			return errDuplicateDiscount()
		}
		if err != nil {
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateDiscount,
			ResourceType: model.AuditResourceDiscount,
			ResourceID:   created.ID,
			BeforeJSON:   "{}",
			AfterJSON:    toJSON(created),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return model.Discount{}, wrapTxError(ctx, u.log, "create discount failed", err)
	}
	return created, nil
}

// nilの項目は変更しない
type DiscountPatch struct {
	ProductID        *int64
	RequiredQuantity *int64
	FreeProductID    *int64
	FreeQuantity     *int64
}

func (u *DiscountUsecase) AdminUpdateDiscount(ctx context.Context, adminUserID int64, discountID int64, in DiscountPatch) (model.Discount, error) {
	if adminUserID <= 0 {
		return model.Discount{}, errUnauthorized()
	}
	if discountID <= 0 {
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid discount id")
	}
	if in.ProductID == nil && in.RequiredQuantity == nil && in.FreeProductID == nil && in.FreeQuantity == nil {
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	var updated model.Discount
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Discounts().FindByID(ctx, discountID)
		if errors.Is(err, repo.ErrNotFound) {
			return errDiscountNotFound()
		}
		if err != nil {
			return errDB()
		}

		after := before
		after.Product, after.FreeProduct = nil, nil
		if in.ProductID != nil {
			after.ProductID = *in.ProductID
		}
		if in.RequiredQuantity != nil {
			after.RequiredQuantity = *in.RequiredQuantity
		}
		if in.FreeProductID != nil {
			after.FreeProductID = *in.FreeProductID
		}
		if in.FreeQuantity != nil {
			after.FreeQuantity = *in.FreeQuantity
		}
		if err := validateDiscount(after); err != nil {
			return err
		}
		if err := checkDiscountRefs(ctx, r, after); err != nil {
			return err
		}

		if err := r.Discounts().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return errDuplicateDiscount()
			}
			if errors.Is(err, repo.ErrNotFound) {
				return errDiscountNotFound()
			}
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateDiscount,
			ResourceType: model.AuditResourceDiscount,
			ResourceID:   discountID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}
		updated = after
		return nil
	})
	if err != nil {
		return model.Discount{}, wrapTxError(ctx, u.log, "update discount failed", err)
	}
	return updated, nil
}

func (u *DiscountUsecase) AdminDeleteDiscount(ctx context.Context, adminUserID int64, discountID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if discountID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid discount id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Discounts().FindByID(ctx, discountID)
		if errors.Is(err, repo.ErrNotFound) {
			return errDiscountNotFound()
		}
		if err != nil {
			return errDB()
		}

		if err := r.Discounts().Delete(ctx, discountID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errDiscountNotFound()
			}
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteDiscount,
			ResourceType: model.AuditResourceDiscount,
			ResourceID:   discountID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    "{}",
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return wrapTxError(ctx, u.log, "delete discount failed", err)
	}
	return nil
}

func validateDiscount(d model.Discount) error {
	if d.ProductID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "product_id required")
	}
	if d.FreeProductID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "free_product_id required")
	}
	if d.RequiredQuantity <= 0 {
		return NewHTTPError(http.StatusBadRequest, "required_quantity must be > 0")
	}
	if d.FreeQuantity <= 0 {
		return NewHTTPError(http.StatusBadRequest, "free_quantity must be > 0")
	}
	return nil
}

// 参照先の商品が存在するか（書き込み時だけ確認する）
func checkDiscountRefs(ctx context.Context, r repo.TxRepos, d model.Discount) error {
	for _, ref := range []struct {
		id    int64
		field string
	}{
		{d.ProductID, "product_id"},
		{d.FreeProductID, "free_product_id"},
	} {
		_, err := r.Products().FindByID(ctx, ref.id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, ref.field+" references unknown product")
		}
		if err != nil {
			return errDB()
		}
	}
	return nil
}

func errDiscountNotFound() error {
	return NewHTTPError(http.StatusNotFound, "Discount not found")
}

func errDuplicateDiscount() error {
	return NewHTTPError(http.StatusConflict, "discount for this product and required_quantity already exists")
}
