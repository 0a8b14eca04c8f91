package handler

import (
	"net/http"

	"inventory/internal/middleware"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// productId / userId（旧クライアントのキー）も受け付ける
type PurchaseRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	UserID    *int64 `json:"user_id"`

	LegacyProductID int64  `json:"productId"`
	LegacyUserID    *int64 `json:"userId"`
}

func (r *PurchaseRequest) normalize() {
	if r.ProductID == 0 {
		r.ProductID = r.LegacyProductID
	}
	if r.UserID == nil {
		r.UserID = r.LegacyUserID
	}
}

type PurchaseHandler struct {
	uc *usecase.PurchaseUsecase
}

func NewPurchaseHandler(uc *usecase.PurchaseUsecase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

func (h *PurchaseHandler) RegisterRoutes(e *echo.Echo, g middleware.Guards) {
	user := e.Group("/user", g.User...)
	user.POST("/purchase", h.purchase)
	user.GET("/purchases", h.listMine)

	e.GET("/admin/purchases", h.adminList, g.Admin...)
}

func (h *PurchaseHandler) purchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.normalize()
	if req.ProductID <= 0 {
		return badRequest(c, "product_id required")
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	userID, _ := middleware.UserIDFrom(c)
	out, err := h.uc.Purchase(c.Request().Context(), usecase.PurchaseInput{
		ActorUserID: userID,
		ActorRole:   middleware.RoleFrom(c),
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PurchaseHandler) listMine(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return badRequest(c, "invalid limit")
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return badRequest(c, "invalid offset")
	}

	userID, _ := middleware.UserIDFrom(c)
	items, err := h.uc.ListMine(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /admin/purchases?user_id=&product_id=&limit=&offset=
func (h *PurchaseHandler) adminList(c echo.Context) error {
	var f repo.PurchaseFilter
	var err error
	if f.UserID, err = queryInt64Ptr(c, "user_id"); err != nil {
		return badRequest(c, "invalid user_id")
	}
	if f.ProductID, err = queryInt64Ptr(c, "product_id"); err != nil {
		return badRequest(c, "invalid product_id")
	}
	if f.Limit, err = queryInt(c, "limit", 50); err != nil {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return badRequest(c, "invalid offset")
	}

	items, err := h.uc.AdminList(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
