package handler

import (
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/middleware"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminAuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAdminAuditLogHandler(uc *usecase.AuditLogUsecase) *AdminAuditLogHandler {
	return &AdminAuditLogHandler{uc: uc}
}

func (h *AdminAuditLogHandler) RegisterRoutes(e *echo.Echo, g middleware.Guards) {
	admin := e.Group("/admin", g.Admin...)
	admin.GET("/audit-logs", h.list)
}

// GET /admin/audit-logs?actor_user_id=&action=&resource_type=&resource_id=&from=&to=&limit=&offset=
func (h *AdminAuditLogHandler) list(c echo.Context) error {
	var f repo.AuditLogFilter
	var err error

	if f.ActorUserID, err = queryInt64Ptr(c, "actor_user_id"); err != nil {
		return badRequest(c, "invalid actor_user_id")
	}
	if f.ResourceID, err = queryInt64Ptr(c, "resource_id"); err != nil {
		return badRequest(c, "invalid resource_id")
	}
	if v := strings.TrimSpace(c.QueryParam("action")); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		f.Action = &a
	}
	if v := strings.TrimSpace(c.QueryParam("resource_type")); v != "" {
		rt := model.AuditResourceType(strings.ToLower(v))
		f.ResourceType = &rt
	}
	if f.CreatedFrom, err = queryTime(c, "from"); err != nil {
		return badRequest(c, "from must be RFC3339")
	}
	if f.CreatedTo, err = queryTime(c, "to"); err != nil {
		return badRequest(c, "to must be RFC3339")
	}
	if f.Limit, err = queryInt(c, "limit", 50); err != nil {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return badRequest(c, "invalid offset")
	}

	items, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
