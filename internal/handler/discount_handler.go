package handler

import (
	"net/http"
	"strconv"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 割引ルールの公開API
type DiscountHandler struct {
	uc *usecase.DiscountUsecase
}

func NewDiscountHandler(uc *usecase.DiscountUsecase) *DiscountHandler {
	return &DiscountHandler{uc: uc}
}

func (h *DiscountHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/discounts", h.list)
	e.GET("/user/discounts", h.list)
	e.GET("/discounts/lookup", h.lookup)
}

func (h *DiscountHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

type lookupResponse struct {
	Found    bool            `json:"found"`
	Discount *model.Discount `json:"discount"`
}

// GET /discounts/lookup?product_id=1&quantity=5
func (h *DiscountHandler) lookup(c echo.Context) error {
	productID, err := strconv.ParseInt(c.QueryParam("product_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid product_id")
	}
	qty, err := strconv.ParseInt(c.QueryParam("quantity"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid quantity")
	}

	d, found, err := h.uc.Lookup(c.Request().Context(), productID, qty)
	if err != nil {
		return writeError(c, err)
	}
	if !found {
		return c.JSON(http.StatusOK, lookupResponse{Found: false})
	}
	return c.JSON(http.StatusOK, lookupResponse{Found: true, Discount: &d})
}
