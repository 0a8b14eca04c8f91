package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	repo "inventory/internal/repository"
)

// 承認時に購入済み数量を超えていたときの却下理由
const reasonExceedsPurchased = "Returned quantity exceeds purchased quantity"

type ReturnUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	returns  repo.ReturnRequestRepository
	locker   Locker
	clock    Clock
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// DI
func NewReturnUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	returns repo.ReturnRequestRepository,
	locker Locker,
	clock Clock,
	log *logger.Logger,
	m *metrics.Metrics,
) *ReturnUsecase {
	return &ReturnUsecase{
		tx:       tx,
		products: products,
		returns:  returns,
		locker:   locker,
		clock:    clock,
		log:      log,
		metrics:  m,
	}
}

type SubmitReturnInput struct {
	ActorUserID int64
	ActorRole   model.Role
	UserID      *int64
	ProductID   int64
	Quantity    int64
	Reason      string
}

type ReturnOutput struct {
	Message       string              `json:"message"`
	ReturnRequest model.ReturnRequest `json:"return_request"`
}

// 返品申請。在庫はまだ戻さない。
func (u *ReturnUsecase) Submit(ctx context.Context, in SubmitReturnInput) (ReturnOutput, error) {
	if in.ActorUserID <= 0 {
		return ReturnOutput{}, errUnauthorized()
	}
	userID, err := resolveSubject(in.ActorUserID, in.ActorRole, in.UserID)
	if err != nil {
		return ReturnOutput{}, err
	}
	if in.ProductID <= 0 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "product_id required")
	}
	if in.Quantity <= 0 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > 255 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	if _, err := u.products.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReturnOutput{}, errProductNotFound()
		}
		return ReturnOutput{}, errDB()
	}

	now := u.clock.Now()
	rr, err := u.returns.Create(ctx, model.ReturnRequest{
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Status:    model.ReturnStatusPending,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		u.log.Error(ctx, "create return request failed", err)
		return ReturnOutput{}, errDB()
	}

	u.metrics.IncReturn("submitted")
	return ReturnOutput{Message: "Return request submitted", ReturnRequest: rr}, nil
}

func (u *ReturnUsecase) ListMine(ctx context.Context, userID int64) ([]model.ReturnRequest, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}
	return u.list(ctx, repo.ReturnRequestFilter{UserID: &userID})
}

// 管理者向け一覧。statusは空なら全件
func (u *ReturnUsecase) AdminList(ctx context.Context, status string) ([]model.ReturnRequest, error) {
	f := repo.ReturnRequestFilter{}
	if s := strings.ToUpper(strings.TrimSpace(status)); s != "" {
		st := model.ReturnStatus(s)
		switch st {
		case model.ReturnStatusPending, model.ReturnStatusAccepted, model.ReturnStatusRejected:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}
	return u.list(ctx, f)
}

func (u *ReturnUsecase) list(ctx context.Context, f repo.ReturnRequestFilter) ([]model.ReturnRequest, error) {
	items, err := u.returns.ListExpanded(ctx, f)
	if err != nil {
		u.log.Error(ctx, "list return requests failed", err)
		return nil, errDB()
	}
	return items, nil
}

// Accept は購入済み数量（承認済み返品を除く）以内なら在庫を戻して ACCEPTED にする。
// 超えていれば REJECTED にして（これは確定させて）400 を返す。
func (u *ReturnUsecase) Accept(ctx context.Context, adminUserID int64, returnID int64) (ReturnOutput, error) {
	if adminUserID <= 0 {
		return ReturnOutput{}, errUnauthorized()
	}
	if returnID <= 0 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "invalid return request id")
	}
	ctx = u.log.WithField(ctx, "return_request_id", returnID)

	// ロックのキーを決めるため先に読む（tx内で読み直す）
	peek, err := u.returns.FindByID(ctx, returnID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReturnOutput{}, errReturnNotFound()
	}
	if err != nil {
		return ReturnOutput{}, errDB()
	}

	release, err := u.locker.Acquire(ctx, productLockKey(peek.ProductID))
	if err != nil {
		u.log.Warn(ctx, "product lock busy")
		return ReturnOutput{}, errBusy()
	}
	defer release()

	var (
		result     model.ReturnRequest
		overLimit  bool
		eligibleQt int64
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rr, err := r.Returns().FindByID(ctx, returnID)
		if errors.Is(err, repo.ErrNotFound) {
			return errReturnNotFound()
		}
		if err != nil {
			return errDB()
		}
		if rr.Status != model.ReturnStatusPending {
			return errInvalidState("return request is already " + strings.ToLower(string(rr.Status)))
		}

		purchased, err := r.Purchases().SumQuantity(ctx, rr.UserID, rr.ProductID)
		if err != nil {
			return errDB()
		}
		accepted, err := r.Returns().SumAcceptedQuantity(ctx, rr.UserID, rr.ProductID)
		if err != nil {
			return errDB()
		}
		eligibleQt = purchased - accepted

		now := u.clock.Now()
		if rr.Quantity > eligibleQt {
			// 却下は確定させる（エラーはtxの外で返す）
			if err := u.transition(ctx, r, rr, adminUserID, model.ReturnStatusRejected, reasonExceedsPurchased); err != nil {
				return err
			}
			overLimit = true
			result = decided(rr, model.ReturnStatusRejected, adminUserID, reasonExceedsPurchased, now)
			return nil
		}

		// 商品が削除済みなら戻せない（申請はPENDINGのまま）
		if err := r.Inventory().IncreaseStock(ctx, rr.ProductID, rr.Quantity); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errProductNotFound()
			}
			return errDB()
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   rr.ProductID,
			ActorUserID: adminUserID,
			Delta:       rr.Quantity,
			Reason:      model.AdjustmentReturnAccepted,
			CreatedAt:   now,
		}); err != nil {
			return errDB()
		}

		if err := u.transition(ctx, r, rr, adminUserID, model.ReturnStatusAccepted, rr.Reason); err != nil {
			return err
		}
		result = decided(rr, model.ReturnStatusAccepted, adminUserID, rr.Reason, now)
		return nil
	})
	if err != nil {
		return ReturnOutput{}, wrapTxError(ctx, u.log, "accept return failed", err)
	}

	if overLimit {
		u.metrics.IncReturn("over_limit")
		u.log.Info(u.log.WithFields(ctx, map[string]any{
			"requested": result.Quantity,
			"eligible":  eligibleQt,
		}), "return request rejected: exceeds purchased quantity")
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "Return request rejected: "+reasonExceedsPurchased)
	}

	u.metrics.IncReturn("accepted")
	u.log.Info(ctx, "return request accepted")
	return ReturnOutput{Message: "Return request accepted", ReturnRequest: result}, nil
}

// Reject は PENDING の申請だけを REJECTED にする。在庫は変えない。
func (u *ReturnUsecase) Reject(ctx context.Context, adminUserID int64, returnID int64, reason string) (ReturnOutput, error) {
	if adminUserID <= 0 {
		return ReturnOutput{}, errUnauthorized()
	}
	if returnID <= 0 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "invalid return request id")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 255 {
		return ReturnOutput{}, NewHTTPError(http.StatusBadRequest, "reason too long")
	}

	var result model.ReturnRequest
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rr, err := r.Returns().FindByID(ctx, returnID)
		if errors.Is(err, repo.ErrNotFound) {
			return errReturnNotFound()
		}
		if err != nil {
			return errDB()
		}
		if rr.Status != model.ReturnStatusPending {
			return errInvalidState("return request is already " + strings.ToLower(string(rr.Status)))
		}

		if reason == "" {
			reason = rr.Reason
		}
		if err := u.transition(ctx, r, rr, adminUserID, model.ReturnStatusRejected, reason); err != nil {
			return err
		}
		result = decided(rr, model.ReturnStatusRejected, adminUserID, reason, u.clock.Now())
		return nil
	})
	if err != nil {
		return ReturnOutput{}, wrapTxError(ctx, u.log, "reject return failed", err)
	}

	u.metrics.IncReturn("rejected")
	return ReturnOutput{Message: "Return request rejected", ReturnRequest: result}, nil
}

// 条件付きで状態を進めて監査ログを残す
func (u *ReturnUsecase) transition(ctx context.Context, r repo.TxRepos, rr model.ReturnRequest, adminUserID int64, to model.ReturnStatus, reason string) error {
	now := u.clock.Now()
	ok, err := r.Returns().Transition(ctx, rr.ID, repo.ReturnTransition{
		From:      model.ReturnStatusPending,
		To:        to,
		DecidedBy: adminUserID,
		DecidedAt: now,
		Reason:    reason,
	})
	if err != nil {
		return errDB()
	}
	// 他の管理者が先に判断した
	if !ok {
		return errInvalidState("return request is no longer pending")
	}

	action := model.AuditActionAcceptReturn
	if to == model.ReturnStatusRejected {
		action = model.AuditActionRejectReturn
	}
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       action,
		ResourceType: model.AuditResourceReturnRequest,
		ResourceID:   rr.ID,
		BeforeJSON:   toJSON(map[string]any{"status": rr.Status, "quantity": rr.Quantity}),
		AfterJSON:    toJSON(map[string]any{"status": to, "quantity": rr.Quantity, "reason": reason}),
		CreatedAt:    now,
	}); err != nil {
		return errDB()
	}
	return nil
}

func decided(rr model.ReturnRequest, to model.ReturnStatus, adminUserID int64, reason string, at time.Time) model.ReturnRequest {
	rr.Status = to
	rr.Reason = reason
	rr.DecidedBy = &adminUserID
	rr.DecidedAt = &at
	rr.UpdatedAt = at
	return rr
}

func errReturnNotFound() error {
	return NewHTTPError(http.StatusNotFound, "Return request not found")
}
