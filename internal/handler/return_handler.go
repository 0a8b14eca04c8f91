package handler

import (
	"net/http"

	"inventory/internal/middleware"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReturnRequestBody struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	UserID    *int64 `json:"user_id"`
	Reason    string `json:"reason" validate:"max=255"`

	LegacyProductID int64  `json:"productId"`
	LegacyUserID    *int64 `json:"userId"`
}

func (r *ReturnRequestBody) normalize() {
	if r.ProductID == 0 {
		r.ProductID = r.LegacyProductID
	}
	if r.UserID == nil {
		r.UserID = r.LegacyUserID
	}
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type ReturnHandler struct {
	uc *usecase.ReturnUsecase
}

func NewReturnHandler(uc *usecase.ReturnUsecase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

func (h *ReturnHandler) RegisterRoutes(e *echo.Echo, g middleware.Guards) {
	user := e.Group("/user", g.User...)
	user.POST("/return", h.submit)
	user.GET("/returns", h.listMine)

	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", g.Admin...)
	admin.GET("/returns", h.adminList)
	admin.POST("/returns/:id/accept", h.accept)
	admin.POST("/returns/:id/reject", h.reject)
}

func (h *ReturnHandler) submit(c echo.Context) error {
	var req ReturnRequestBody
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
	out, err := h.uc.Submit(c.Request().Context(), usecase.SubmitReturnInput{
		ActorUserID: userID,
		ActorRole:   middleware.RoleFrom(c),
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReturnHandler) listMine(c echo.Context) error {
	userID, _ := middleware.UserIDFrom(c)
	items, err := h.uc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /admin/returns?status=PENDING
func (h *ReturnHandler) adminList(c echo.Context) error {
	items, err := h.uc.AdminList(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ReturnHandler) accept(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, _ := middleware.UserIDFrom(c)
	out, err := h.uc.Accept(c.Request().Context(), adminID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReturnHandler) reject(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	// bodyは省略可
	var req RejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	adminID, _ := middleware.UserIDFrom(c)
	out, err := h.uc.Reject(c.Request().Context(), adminID, id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
