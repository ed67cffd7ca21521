package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"ITEM_NOT_FOUND", http.StatusNotFound},
		{"CARD_IN_USE", http.StatusConflict},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"PERMISSION_DENIED", http.StatusForbidden},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_FUNDS", http.StatusUnprocessableEntity},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"REVERSAL_FAILED", http.StatusUnprocessableEntity},
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"INVALID_CARD_NUMBER", http.StatusBadRequest},
		{"SOMETHING_UNEXPECTED", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Tab not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Tab not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestListRequestNormalize(t *testing.T) {
	var req ListRequest
	req.Normalize()

	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
	assert.Equal(t, "created_at", req.OrderBy)
	assert.Equal(t, "desc", req.OrderDir)
}
