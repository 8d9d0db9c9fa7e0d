package dto

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindJSON(t *testing.T, body string, obj any) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c.ShouldBindJSON(obj)
}

func TestCreateWalletRequest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"canonical", `{"uuid":"0b9c3a52-8f63-4c1b-9f6e-2a4b5c6d7e8f"}`, true},
		{"upper case hex", `{"uuid":"0B9C3A52-8F63-4C1B-9F6E-2A4B5C6D7E8F"}`, true},
		{"no hyphens", `{"uuid":"0b9c3a528f634c1b9f6e2a4b5c6d7e8f"}`, false},
		{"braced", `{"uuid":"{0b9c3a52-8f63-4c1b-9f6e-2a4b5c6d7e8f}"}`, false},
		{"garbage", `{"uuid":"not-a-uuid"}`, false},
		{"empty", `{"uuid":""}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateWalletRequest
			err := bindJSON(t, tt.body, &req)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, "VAL_003", BindingError(err).Code)
		})
	}
}

func TestOperationRequest_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"deposit", `{"operation_type":"DEPOSIT","amount":1}`, ""},
		{"withdraw", `{"operation_type":"WITHDRAW","amount":9223372036854775807}`, ""},
		{"mixed case", `{"operation_type":"Deposit","amount":1}`, "VAL_002"},
		{"zero", `{"operation_type":"DEPOSIT","amount":0}`, "VAL_001"},
		{"negative", `{"operation_type":"WITHDRAW","amount":-1}`, "VAL_001"},
		{"string amount", `{"operation_type":"WITHDRAW","amount":"100"}`, "VAL_001"},
		{"wrong type for operation_type", `{"operation_type":1,"amount":1}`, "VAL_002"},
		{"malformed", `not json`, "VAL_000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req OperationRequest
			err := bindJSON(t, tt.body, &req)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, BindingError(err).Code)
		})
	}
}

func TestBindingError_UnknownFieldIsGeneric(t *testing.T) {
	var q ListOperationsQuery
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?offset=-1", nil)

	err := c.ShouldBindQuery(&q)
	require.Error(t, err)
	appErr := BindingError(err)
	assert.Equal(t, "VAL_000", appErr.Code)
	assert.Contains(t, appErr.Message, "Offset")
}

func TestBindingError_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"uuid":"` + strings.Repeat("a", 64) + `"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 16)

	var req CreateWalletRequest
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)

	appErr := BindingError(err)
	assert.Equal(t, "VAL_000", appErr.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPStatus)
}
