package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type returnFixture struct {
	tx        *TxManagerMock
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	purchases *PurchaseRepoMock
	returns   *ReturnRepoMock
	audit     *AuditRepoMock
	locker    *LockerMock
	uc        *usecase.ReturnUsecase
}

func newReturnFixture() returnFixture {
	f := returnFixture{
		products:  new(ProductRepoMock),
		inventory: new(InventoryRepoMock),
		purchases: new(PurchaseRepoMock),
		returns:   new(ReturnRepoMock),
		audit:     new(AuditRepoMock),
		locker:    new(LockerMock),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{
		products:  f.products,
		inventory: f.inventory,
		purchases: f.purchases,
		returns:   f.returns,
		auditLogs: f.audit,
	}}
	f.tx.On("WithinTx", mock.Anything).Return()
	f.uc = usecase.NewReturnUsecase(f.tx, f.products, f.returns, f.locker, fixedClock{testNow}, logger.Nop(), nil)
	return f
}

func pendingReturn(id, userID, productID, qty int64) model.ReturnRequest {
	return model.ReturnRequest{ID: id, UserID: userID, ProductID: productID, Quantity: qty, Status: model.ReturnStatusPending}
}

// =====================
// Submit
// =====================

func TestReturnUsecase_Submit_CreatesPending(t *testing.T) {
	f := newReturnFixture()

	f.products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1}, nil)
	f.returns.On("Create", mock.Anything, mock.MatchedBy(func(r model.ReturnRequest) bool {
		return r.UserID == 9 && r.ProductID == 1 && r.Quantity == 2 && r.Status == model.ReturnStatusPending && r.Reason == "broken"
	})).Return(model.ReturnRequest{ID: 11, Status: model.ReturnStatusPending}, nil)

	out, err := f.uc.Submit(context.Background(), usecase.SubmitReturnInput{ActorUserID: 9, ProductID: 1, Quantity: 2, Reason: " broken "})
	require.NoError(t, err)
	assert.Equal(t, "Return request submitted", out.Message)
	assert.Equal(t, int64(11), out.ReturnRequest.ID)

	// 申請だけでは在庫は動かない
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnUsecase_Submit_UnknownProduct(t *testing.T) {
	f := newReturnFixture()

	f.products.On("FindByID", mock.Anything, int64(77)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.Submit(context.Background(), usecase.SubmitReturnInput{ActorUserID: 9, ProductID: 77, Quantity: 1})
	assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
}

func TestReturnUsecase_Submit_ZeroQuantity(t *testing.T) {
	f := newReturnFixture()

	_, err := f.uc.Submit(context.Background(), usecase.SubmitReturnInput{ActorUserID: 9, ProductID: 1, Quantity: 0})
	assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
}

// =====================
// Accept
// =====================

func TestReturnUsecase_Accept_RestoresStock(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 2)

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
	f.locker.On("Acquire", mock.Anything, []string{"product:1"}).Return(nil)
	f.purchases.On("SumQuantity", mock.Anything, int64(9), int64(1)).Return(int64(5), nil)
	f.returns.On("SumAcceptedQuantity", mock.Anything, int64(9), int64(1)).Return(int64(1), nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(2)).Return(nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.Delta == 2 && a.Reason == model.AdjustmentReturnAccepted && a.ActorUserID == 1
	})).Return(nil)
	f.returns.On("Transition", mock.Anything, int64(3), mock.MatchedBy(func(tr repo.ReturnTransition) bool {
		return tr.From == model.ReturnStatusPending && tr.To == model.ReturnStatusAccepted && tr.DecidedBy == 1
	})).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionAcceptReturn && l.ResourceID == 3
	})).Return(nil)

	out, err := f.uc.Accept(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "Return request accepted", out.Message)
	assert.Equal(t, model.ReturnStatusAccepted, out.ReturnRequest.Status)
	require.NotNil(t, out.ReturnRequest.DecidedBy)
	assert.Equal(t, int64(1), *out.ReturnRequest.DecidedBy)

	f.inventory.AssertExpectations(t)
	f.returns.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

// 購入済み数量を超える申請は REJECTED を確定させてから 400
func TestReturnUsecase_Accept_OverLimitRejectsAndReports(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 4)

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
	f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.purchases.On("SumQuantity", mock.Anything, int64(9), int64(1)).Return(int64(5), nil)
	f.returns.On("SumAcceptedQuantity", mock.Anything, int64(9), int64(1)).Return(int64(2), nil)
	f.returns.On("Transition", mock.Anything, int64(3), mock.MatchedBy(func(tr repo.ReturnTransition) bool {
		return tr.To == model.ReturnStatusRejected && tr.Reason == "Returned quantity exceeds purchased quantity"
	})).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionRejectReturn
	})).Return(nil)

	_, err := f.uc.Accept(context.Background(), 1, 3)
	he := assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
	assert.Equal(t, "Return request rejected: Returned quantity exceeds purchased quantity", he.Message)

	f.returns.AssertExpectations(t)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnUsecase_Accept_TerminalIsInvalidState(t *testing.T) {
	for _, status := range []model.ReturnStatus{model.ReturnStatusAccepted, model.ReturnStatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			f := newReturnFixture()
			rr := pendingReturn(3, 9, 1, 1)
			rr.Status = status

			f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
			f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)

			_, err := f.uc.Accept(context.Background(), 1, 3)
			assertHTTPError(t, err, http.StatusConflict, usecase.KindInvalidState)
			f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
			f.returns.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReturnUsecase_Accept_DeletedProductKeepsPending(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 1)

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
	f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.purchases.On("SumQuantity", mock.Anything, int64(9), int64(1)).Return(int64(1), nil)
	f.returns.On("SumAcceptedQuantity", mock.Anything, int64(9), int64(1)).Return(int64(0), nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(1)).Return(repo.ErrNotFound)

	_, err := f.uc.Accept(context.Background(), 1, 3)
	assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
	f.returns.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnUsecase_Accept_NotFound(t *testing.T) {
	f := newReturnFixture()

	f.returns.On("FindByID", mock.Anything, int64(404)).Return(model.ReturnRequest{}, repo.ErrNotFound)

	_, err := f.uc.Accept(context.Background(), 1, 404)
	he := assertHTTPError(t, err, http.StatusNotFound, usecase.KindNotFound)
	assert.Equal(t, "Return request not found", he.Message)
}

// 他の管理者が先に判断した
func TestReturnUsecase_Accept_LostTransitionRace(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 1)

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
	f.locker.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.purchases.On("SumQuantity", mock.Anything, int64(9), int64(1)).Return(int64(1), nil)
	f.returns.On("SumAcceptedQuantity", mock.Anything, int64(9), int64(1)).Return(int64(0), nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(1)).Return(nil)
	f.inventory.On("CreateAdjustment", mock.Anything, mock.Anything).Return(nil)
	f.returns.On("Transition", mock.Anything, int64(3), mock.Anything).Return(false, nil)

	_, err := f.uc.Accept(context.Background(), 1, 3)
	assertHTTPError(t, err, http.StatusConflict, usecase.KindInvalidState)
}

// =====================
// Reject / AdminList
// =====================

func TestReturnUsecase_Reject_KeepsStock(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 1)

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)
	f.returns.On("Transition", mock.Anything, int64(3), mock.MatchedBy(func(tr repo.ReturnTransition) bool {
		return tr.To == model.ReturnStatusRejected && tr.Reason == "no receipt"
	})).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.Reject(context.Background(), 1, 3, "no receipt")
	require.NoError(t, err)
	assert.Equal(t, "Return request rejected", out.Message)
	assert.Equal(t, model.ReturnStatusRejected, out.ReturnRequest.Status)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnUsecase_Reject_AlreadyAccepted(t *testing.T) {
	f := newReturnFixture()
	rr := pendingReturn(3, 9, 1, 1)
	rr.Status = model.ReturnStatusAccepted

	f.returns.On("FindByID", mock.Anything, int64(3)).Return(rr, nil)

	_, err := f.uc.Reject(context.Background(), 1, 3, "")
	assertHTTPError(t, err, http.StatusConflict, usecase.KindInvalidState)
}

func TestReturnUsecase_AdminList_StatusFilter(t *testing.T) {
	f := newReturnFixture()
	pending := model.ReturnStatusPending

	f.returns.On("ListExpanded", mock.Anything, repo.ReturnRequestFilter{Status: &pending}).Return([]model.ReturnRequest{{ID: 1}}, nil)

	items, err := f.uc.AdminList(context.Background(), "pending")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.uc.AdminList(context.Background(), "lost")
	assertHTTPError(t, err, http.StatusBadRequest, usecase.KindValidation)
}
