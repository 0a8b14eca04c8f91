package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory/internal/usecase"
	"inventory/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validator.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		wantJSON string
	}{
		{
			name:     "http error keeps kind",
			err:      usecase.NewKindError(http.StatusBadRequest, usecase.KindInsufficientStock, "Insufficient product quantity"),
			status:   http.StatusBadRequest,
			wantJSON: `{"error":"Insufficient product quantity","kind":"insufficient_stock"}`,
		},
		{
			name:     "kind derived from status",
			err:      usecase.NewHTTPError(http.StatusNotFound, "Product not found"),
			status:   http.StatusNotFound,
			wantJSON: `{"error":"Product not found","kind":"not_found"}`,
		},
		{
			name:     "validation fields",
			err:      &validator.ValidationError{Fields: map[string]string{"quantity": "must be >= 0"}},
			status:   http.StatusBadRequest,
			wantJSON: `{"error":"validation failed","kind":"validation","fields":{"quantity":"must be >= 0"}}`,
		},
		{
			name:     "unknown error hides detail",
			err:      errors.New("pq: connection refused"),
			status:   http.StatusInternalServerError,
			wantJSON: `{"error":"internal error","kind":"internal"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/", "")
			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.wantJSON, rec.Body.String())
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	var req registerRequest

	c, _ := newTestContext(http.MethodPost, "/register", `{"username":"alice","password":"password123"}`)
	require.NoError(t, bindAndValidate(c, &req))
	assert.Equal(t, "alice", req.Username)

	c, _ = newTestContext(http.MethodPost, "/register", `{"username":`)
	err := bindAndValidate(c, &req)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	req = registerRequest{}
	c, _ = newTestContext(http.MethodPost, "/register", `{"username":"al"}`)
	err = bindAndValidate(c, &req)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "password")
}

func TestPurchaseRequest_LegacyKeys(t *testing.T) {
	uid := int64(9)
	r := PurchaseRequest{LegacyProductID: 3, LegacyUserID: &uid, Quantity: 1}
	r.normalize()
	assert.Equal(t, int64(3), r.ProductID)
	require.NotNil(t, r.UserID)
	assert.Equal(t, int64(9), *r.UserID)

	// 新しいキーが優先
	r = PurchaseRequest{ProductID: 4, LegacyProductID: 3}
	r.normalize()
	assert.Equal(t, int64(4), r.ProductID)
}

func TestParseIDParam(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/products/12", "")
	c.SetParamNames("id")
	c.SetParamValues("12")
	id, ok := parseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	for _, v := range []string{"0", "-1", "abc"} {
		c.SetParamValues(v)
		_, ok = parseIDParam(c, "id")
		assert.False(t, ok, v)
	}
}

func TestProductCreateRequest_RequiresPriceAndQuantity(t *testing.T) {
	var req ProductCreateRequest
	c, _ := newTestContext(http.MethodPost, "/products", `{"name":"Beans"}`)
	err := bindAndValidate(c, &req)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "price")
	assert.Contains(t, ve.Fields, "quantity")

	// 0は明示すれば有効
	req = ProductCreateRequest{}
	c, _ = newTestContext(http.MethodPost, "/products", `{"name":"Beans","price":0,"quantity":0}`)
	require.NoError(t, bindAndValidate(c, &req))
	require.NotNil(t, req.Price)
	require.NotNil(t, req.Quantity)
	assert.True(t, req.Price.IsZero())
	assert.Equal(t, int64(0), *req.Quantity)

	req = ProductCreateRequest{}
	c, _ = newTestContext(http.MethodPost, "/products", `{"name":"Beans","price":"1.00","quantity":-1}`)
	require.ErrorAs(t, bindAndValidate(c, &req), &ve)
	assert.Contains(t, ve.Fields, "quantity")
}

func TestRegisterRequest_PasswordOver72Bytes(t *testing.T) {
	var req registerRequest
	body := `{"username":"alice","password":"` + strings.Repeat("a", 80) + `"}`
	c, _ := newTestContext(http.MethodPost, "/register", body)
	err := bindAndValidate(c, &req)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")
}
