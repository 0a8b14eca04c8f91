package usecase

import (
	"context"
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/logger"
	repo "inventory/internal/repository"
)

type AuditLogUsecase struct {
	audit repo.AuditLogRepository
	log   *logger.Logger
}

func NewAuditLogUsecase(audit repo.AuditLogRepository, log *logger.Logger) *AuditLogUsecase {
	return &AuditLogUsecase{audit: audit, log: log}
}

// 管理者操作ログの一覧
func (u *AuditLogUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 0 || f.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	items, err := u.audit.List(ctx, f)
	if err != nil {
		u.log.Error(ctx, "list audit logs failed", err)
		return nil, errDB()
	}
	return items, nil
}
