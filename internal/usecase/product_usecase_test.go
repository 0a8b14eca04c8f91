package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	tx        *TxManagerMock
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	locker    *LockerMock
	uc        *usecase.ProductUsecase
}

func newProductFixture() productFixture {
	f := productFixture{
		products:  new(ProductRepoMock),
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
		locker:    new(LockerMock),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{
		products:  f.products,
		inventory: f.inventory,
		auditLogs: f.audit,
	}}
	f.tx.On("WithinTx", mock.Anything).Return()
	f.uc = usecase.NewProductUsecase(f.products, f.tx, f.locker, fixedClock{testNow}, logger.Nop())
	return f
}

func TestProductUsecase_Get_NotFound(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.Get(context.Background(), 99)
	he := assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
	assert.Equal(t, "Product not found", he.Message)
}

func TestProductUsecase_AdminCreateProduct_Success(t *testing.T) {
	f := newProductFixture()

	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "Coffee" && p.Price.Equal(decimal.RequireFromString("4.50")) && p.Quantity == 10
	})).Return(model.Product{ID: 123, Name: "Coffee", Quantity: 10}, nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 123 && a.Delta == 10
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionCreateProduct && l.ResourceID == 123 && l.BeforeJSON == "{}"
	})).Return(nil)

	p, err := f.uc.AdminCreateProduct(context.Background(), 1, usecase.AdminCreateProductInput{
		Name:     " Coffee ",
		Price:    decimal.RequireFromString("4.50"),
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(123), p.ID)

	f.products.AssertExpectations(t)
	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestProductUsecase_AdminCreateProduct_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   usecase.AdminCreateProductInput
		want string
	}{
		{"blank name", usecase.AdminCreateProductInput{Name: " ", Quantity: 1}, "name required"},
		{"negative price", usecase.AdminCreateProductInput{Name: "x", Price: decimal.NewFromInt(-1)}, "price"},
		{"negative quantity", usecase.AdminCreateProductInput{Name: "x", Quantity: -1}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newProductFixture()
			_, err := f.uc.AdminCreateProduct(context.Background(), 1, tc.in)
			assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
			assertErrContains(t, err, tc.want)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestProductUsecase_AdminUpdateProduct_RecordsDelta(t *testing.T) {
	f := newProductFixture()
	qty := int64(3)

	f.locker.On("Acquire", mock.Anything, []string{"product:10"}).Return(nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Tea", Quantity: 8}, nil).Once()
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.ID == 10 && p.Name == "Tea" && p.Quantity == 3
	})).Return(nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.Delta == -5 && a.Reason == model.AdjustmentAdminUpdate
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Tea", Quantity: 3}, nil).Once()

	p, err := f.uc.AdminUpdateProduct(context.Background(), 1, 10, usecase.AdminUpdateProductInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Quantity)

	f.inventory.AssertExpectations(t)
	f.locker.AssertExpectations(t)
}

func TestProductUsecase_AdminUpdateProduct_NoFields(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.AdminUpdateProduct(context.Background(), 1, 10, usecase.AdminUpdateProductInput{})
	assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
}

func TestProductUsecase_AdminDeleteProduct_NotFound(t *testing.T) {
	f := newProductFixture()

	f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{}, repo.ErrNotFound)

	err := f.uc.AdminDeleteProduct(context.Background(), 1, 5)
	assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
	f.products.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestProductUsecase_AdminDeleteProduct_Success(t *testing.T) {
	f := newProductFixture()

	f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Old"}, nil)
	f.products.On("SoftDelete", mock.Anything, int64(5)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteProduct && l.AfterJSON == "{}"
	})).Return(nil)

	require.NoError(t, f.uc.AdminDeleteProduct(context.Background(), 1, 5))
	f.products.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

// =====================
// Discount
// =====================

func newDiscountUsecase() (*usecase.DiscountUsecase, *DiscountRepoMock, *ProductRepoMock, *AuditRepoMock) {
	discounts := new(DiscountRepoMock)
	products := new(ProductRepoMock)
	audit := new(AuditRepoMock)
	tx := &TxManagerMock{Repos: &TxReposMock{discounts: discounts, products: products, auditLogs: audit}}
	tx.On("WithinTx", mock.Anything).Return()
	return usecase.NewDiscountUsecase(discounts, tx, fixedClock{testNow}, logger.Nop()), discounts, products, audit
}

func TestDiscountUsecase_AdminCreateDiscount_Success(t *testing.T) {
	uc, discounts, products, audit := newDiscountUsecase()
	in := usecase.DiscountInput{ProductID: 1, RequiredQuantity: 5, FreeProductID: 2, FreeQuantity: 1}

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(2)).Return(model.Product{ID: 2}, nil)
	discounts.On("Create", mock.Anything, model.Discount{ProductID: 1, RequiredQuantity: 5, FreeProductID: 2, FreeQuantity: 1}).
		Return(model.Discount{ID: 7, ProductID: 1, RequiredQuantity: 5, FreeProductID: 2, FreeQuantity: 1}, nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	d, err := uc.AdminCreateDiscount(context.Background(), 1, in)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.ID)
}

func TestDiscountUsecase_AdminCreateDiscount_Duplicate(t *testing.T) {
	uc, discounts, products, _ := newDiscountUsecase()

	products.On("FindByID", mock.Anything, mock.Anything).Return(model.Product{ID: 1}, nil)
	discounts.On("Create", mock.Anything, mock.Anything).Return(model.Discount{}, repo.ErrDuplicate)

	_, err := uc.AdminCreateDiscount(context.Background(), 1, usecase.DiscountInput{ProductID: 1, RequiredQuantity: 5, FreeProductID: 1, FreeQuantity: 1})
	assertHTTPError(t, err, http.StatusConflict, usecase.KindConflict)
}

func TestDiscountUsecase_AdminCreateDiscount_UnknownFreeProduct(t *testing.T) {
	uc, discounts, products, _ := newDiscountUsecase()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(2)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AdminCreateDiscount(context.Background(), 1, usecase.DiscountInput{ProductID: 1, RequiredQuantity: 5, FreeProductID: 2, FreeQuantity: 1})
	assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
	assertErrContains(t, err, "free_product_id")
	discounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDiscountUsecase_AdminCreateDiscount_Validation(t *testing.T) {
	uc, _, _, _ := newDiscountUsecase()

	_, err := uc.AdminCreateDiscount(context.Background(), 1, usecase.DiscountInput{ProductID: 1, RequiredQuantity: 0, FreeProductID: 2, FreeQuantity: 1})
	assertErrContains(t, err, "required_quantity")
}

func TestDiscountUsecase_Lookup(t *testing.T) {
	uc, discounts, _, _ := newDiscountUsecase()

	discounts.On("FindByProductAndRequired", mock.Anything, int64(1), int64(5)).Return(model.Discount{ID: 7}, true, nil)
	discounts.On("FindByProductAndRequired", mock.Anything, int64(1), int64(6)).Return(model.Discount{}, false, nil)

	d, ok, err := uc.Lookup(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), d.ID)

	_, ok, err = uc.Lookup(context.Background(), 1, 6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiscountUsecase_AdminDeleteDiscount_NotFound(t *testing.T) {
	uc, discounts, _, _ := newDiscountUsecase()

	discounts.On("FindByID", mock.Anything, int64(3)).Return(model.Discount{}, repo.ErrNotFound)

	err := uc.AdminDeleteDiscount(context.Background(), 1, 3)
	he := assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
	assert.Equal(t, "Discount not found", he.Message)
}
