package handler

import (
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/middleware"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// price / quantity は0も有効なので、省略と区別するためポインタにする
type ProductCreateRequest struct {
	Name     string           `json:"name" validate:"required,max=255"`
	Price    *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity *int64           `json:"quantity" validate:"required,gte=0"`
}

// 部分更新（送られた項目だけ変える）
type ProductUpdateRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Price    *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Quantity *int64           `json:"quantity" validate:"omitempty,gte=0"`
}

type ProductResponse struct {
	Message string        `json:"message"`
	Product model.Product `json:"product"`
}

// 商品の登録・更新・削除（管理者のみ）
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, g middleware.Guards) {
	e.POST("/products", h.createProduct, g.Admin...)
	e.PUT("/products/:id", h.updateProduct, g.Admin...)
	e.DELETE("/products/:id", h.deleteProduct, g.Admin...)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, _ := middleware.UserIDFrom(c)
	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, usecase.AdminCreateProductInput{
		Name:     req.Name,
		Price:    *req.Price,
		Quantity: *req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, ProductResponse{Message: "Product added", Product: p})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ProductUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, _ := middleware.UserIDFrom(c)
	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, usecase.AdminUpdateProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, ProductResponse{Message: "Product updated", Product: p})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, _ := middleware.UserIDFrom(c)
	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "Product deleted"})
}
