package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	locker   Locker
	clock    Clock
	log      *logger.Logger
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	tx repo.TransactionManager,
	locker Locker,
	clock Clock,
	log *logger.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		locker:   locker,
		clock:    clock,
		log:      log,
	}
}

func (u *ProductUsecase) List(ctx context.Context) ([]model.Product, error) {
	items, err := u.products.List(ctx)
	if err != nil {
		u.log.Error(ctx, "list products failed", err)
		return nil, errDB()
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errProductNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized()
	}
	p := model.Product{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Quantity: in.Quantity,
	}
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, p)
		if err != nil {
			return errDB()
		}

		//初期在庫も増減履歴に残す
		if created.Quantity > 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   created.ID,
				ActorUserID: adminUserID,
				Delta:       created.Quantity,
				Reason:      model.AdjustmentAdminUpdate,
				CreatedAt:   u.clock.Now(),
			}); err != nil {
				return errDB()
			}
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   created.ID,
			BeforeJSON:   "{}",
			AfterJSON:    toJSON(created),
			CreatedAt:    u.clock.Now(),
		})
	})
	if err != nil {
		return model.Product{}, u.wrapTxError(ctx, "create product failed", err)
	}
	return created, nil
}

// nilの項目は変更しない
type AdminUpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int64
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminUpdateProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized()
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Name == nil && in.Price == nil && in.Quantity == nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	//購入と在庫の上書きがぶつからないようにロック
	release, err := u.locker.Acquire(ctx, productLockKey(productID))
	if err != nil {
		u.log.Warn(u.log.WithField(ctx, "product_id", productID), "product lock busy")
		return model.Product{}, errBusy()
	}
	defer release()

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errProductNotFound()
		}
		if err != nil {
			return errDB()
		}

		after := before
		if in.Name != nil {
			after.Name = strings.TrimSpace(*in.Name)
		}
		if in.Price != nil {
			after.Price = *in.Price
		}
		if in.Quantity != nil {
			after.Quantity = *in.Quantity
		}
		if err := validateProduct(after); err != nil {
			return err
		}

		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errProductNotFound()
			}
			return errDB()
		}

		if delta := after.Quantity - before.Quantity; delta != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   productID,
				ActorUserID: adminUserID,
				Delta:       delta,
				Reason:      model.AdjustmentAdminUpdate,
				CreatedAt:   u.clock.Now(),
			}); err != nil {
				return errDB()
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}

		updated, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return model.Product{}, u.wrapTxError(ctx, "update product failed", err)
	}
	return updated, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	release, err := u.locker.Acquire(ctx, productLockKey(productID))
	if err != nil {
		return errBusy()
	}
	defer release()

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errProductNotFound()
		}
		if err != nil {
			return errDB()
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errProductNotFound()
			}
			return errDB()
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    "{}",
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return u.wrapTxError(ctx, "delete product failed", err)
	}
	return nil
}

func validateProduct(p model.Product) error {
	if p.Name == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(p.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if p.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if p.Quantity < 0 {
		return NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
	}
	return nil
}

func errProductNotFound() error {
	return NewHTTPError(http.StatusNotFound, "Product not found")
}

// tx内で返したHTTPErrorはそのまま、それ以外はdb errorにする
func (u *ProductUsecase) wrapTxError(ctx context.Context, msg string, err error) error {
	return wrapTxError(ctx, u.log, msg, err)
}

func wrapTxError(ctx context.Context, log *logger.Logger, msg string, err error) error {
	if he, ok := AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			log.Error(ctx, msg, err)
		}
		return he
	}
	log.Error(ctx, msg, err)
	return errDB()
}
