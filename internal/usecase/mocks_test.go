package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	products  repo.ProductRepository
	inventory repo.InventoryRepository
	discounts repo.DiscountRepository
	purchases repo.PurchaseRepository
	returns   repo.ReturnRequestRepository
	auditLogs repo.AuditLogRepository
}

func (r *TxReposMock) Products() repo.ProductRepository      { return r.products }
func (r *TxReposMock) Inventory() repo.InventoryRepository   { return r.inventory }
func (r *TxReposMock) Discounts() repo.DiscountRepository    { return r.discounts }
func (r *TxReposMock) Purchases() repo.PurchaseRepository    { return r.purchases }
func (r *TxReposMock) Returns() repo.ReturnRequestRepository { return r.returns }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository    { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) ListExpanded(ctx context.Context) ([]model.Discount, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Discount)
	return items, args.Error(1)
}

func (m *DiscountRepoMock) FindByID(ctx context.Context, id int64) (model.Discount, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) FindByProductAndRequired(ctx context.Context, productID int64, requiredQty int64) (model.Discount, bool, error) {
	args := m.Called(ctx, productID, requiredQty)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Bool(1), args.Error(2)
}

func (m *DiscountRepoMock) Create(ctx context.Context, d model.Discount) (model.Discount, error) {
	args := m.Called(ctx, d)
	out, _ := args.Get(0).(model.Discount)
	return out, args.Error(1)
}

func (m *DiscountRepoMock) Update(ctx context.Context, d model.Discount) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DiscountRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type PurchaseRepoMock struct{ mock.Mock }

func (m *PurchaseRepoMock) Create(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Purchase)
	return out, args.Error(1)
}

func (m *PurchaseRepoMock) List(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Purchase)
	return items, args.Error(1)
}

func (m *PurchaseRepoMock) SumQuantity(ctx context.Context, userID int64, productID int64) (int64, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(int64), args.Error(1)
}

type ReturnRepoMock struct{ mock.Mock }

func (m *ReturnRepoMock) Create(ctx context.Context, r model.ReturnRequest) (model.ReturnRequest, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(model.ReturnRequest)
	return out, args.Error(1)
}

func (m *ReturnRepoMock) FindByID(ctx context.Context, id int64) (model.ReturnRequest, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.ReturnRequest)
	return out, args.Error(1)
}

func (m *ReturnRepoMock) ListExpanded(ctx context.Context, f repo.ReturnRequestFilter) ([]model.ReturnRequest, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.ReturnRequest)
	return items, args.Error(1)
}

func (m *ReturnRepoMock) SumAcceptedQuantity(ctx context.Context, userID int64, productID int64) (int64, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReturnRepoMock) Transition(ctx context.Context, id int64, t repo.ReturnTransition) (bool, error) {
	args := m.Called(ctx, id, t)
	return args.Bool(0), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.AuditLog)
	return items, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Locker / Auth parts
// =====================

type LockerMock struct{ mock.Mock }

func (m *LockerMock) Acquire(ctx context.Context, keys ...string) (func(), error) {
	args := m.Called(ctx, keys)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() {}, nil
}

type HasherMock struct{ mock.Mock }

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) Verify(plain string, hashed string) bool {
	args := m.Called(plain, hashed)
	return args.Bool(0)
}

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, tokenVersion, now)
	exp, _ := args.Get(1).(time.Time)
	return args.String(0), exp, args.Error(2)
}

// 固定時刻
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// =====================
// helpers
// =====================

func assertHTTPError(t *testing.T, err error, status int, kind usecase.ErrorKind) *usecase.HTTPError {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "want *usecase.HTTPError, got %v", err) {
		t.FailNow()
	}
	assert.Equal(t, status, he.Status)
	assert.Equal(t, kind, he.Kind)
	return he
}

func assertErrContains(t *testing.T, err error, substr string) {
	t.Helper()
	if !assert.Error(t, err) {
		return
	}
	assert.True(t, strings.Contains(err.Error(), substr), "error=%q want contains %q", err.Error(), substr)
}
