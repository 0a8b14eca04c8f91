package handler

import (
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/middleware"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DiscountCreateRequest struct {
	ProductID        int64 `json:"product_id" validate:"required,gt=0"`
	RequiredQuantity int64 `json:"required_quantity" validate:"required,gt=0"`
	FreeProductID    int64 `json:"free_product_id" validate:"required,gt=0"`
	FreeQuantity     int64 `json:"free_quantity" validate:"required,gt=0"`
}

type DiscountUpdateRequest struct {
	ProductID        *int64 `json:"product_id" validate:"omitempty,gt=0"`
	RequiredQuantity *int64 `json:"required_quantity" validate:"omitempty,gt=0"`
	FreeProductID    *int64 `json:"free_product_id" validate:"omitempty,gt=0"`
	FreeQuantity     *int64 `json:"free_quantity" validate:"omitempty,gt=0"`
}

type DiscountResponse struct {
	Message  string         `json:"message"`
	Discount model.Discount `json:"discount"`
}

// 割引ルールの登録・更新・削除（管理者のみ）
type AdminDiscountHandler struct {
	uc *usecase.DiscountUsecase
}

func NewAdminDiscountHandler(uc *usecase.DiscountUsecase) *AdminDiscountHandler {
	return &AdminDiscountHandler{uc: uc}
}

func (h *AdminDiscountHandler) RegisterRoutes(e *echo.Echo, g middleware.Guards) {
	e.POST("/discounts", h.create, g.Admin...)
	e.PUT("/discounts/:id", h.update, g.Admin...)
	e.DELETE("/discounts/:id", h.delete, g.Admin...)
}

func (h *AdminDiscountHandler) create(c echo.Context) error {
	var req DiscountCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, _ := middleware.UserIDFrom(c)
	d, err := h.uc.AdminCreateDiscount(c.Request().Context(), adminID, usecase.DiscountInput{
		ProductID:        req.ProductID,
		RequiredQuantity: req.RequiredQuantity,
		FreeProductID:    req.FreeProductID,
		FreeQuantity:     req.FreeQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, DiscountResponse{Message: "Discount added", Discount: d})
}

func (h *AdminDiscountHandler) update(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req DiscountUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, _ := middleware.UserIDFrom(c)
	d, err := h.uc.AdminUpdateDiscount(c.Request().Context(), adminID, id, usecase.DiscountPatch{
		ProductID:        req.ProductID,
		RequiredQuantity: req.RequiredQuantity,
		FreeProductID:    req.FreeProductID,
		FreeQuantity:     req.FreeQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DiscountResponse{Message: "Discount updated", Discount: d})
}

func (h *AdminDiscountHandler) delete(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, _ := middleware.UserIDFrom(c)
	if err := h.uc.AdminDeleteDiscount(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Discount deleted"})
}
