package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRequest struct {
	ProductID string `json:"productId" validate:"required,notblank"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
	Mode      string `json:"mode,omitempty" validate:"omitempty,oneof=substring whole-word"`
}

type bulkRequest struct {
	Products []lineRequest `json:"products" validate:"required,min=1,dive"`
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]string
	}{
		{"valid", lineRequest{ProductID: "p1", Size: "M", Quantity: 2}, nil},
		{"json names", lineRequest{Quantity: 1}, map[string]string{
			"productId": "is required",
			"size":      "is required",
		}},
		{"blank", lineRequest{ProductID: "   ", Size: "M"}, map[string]string{
			"productId": "must not be blank",
		}},
		{"range and oneof", lineRequest{ProductID: "p1", Size: "M", Quantity: 120, Mode: "fuzzy"}, map[string]string{
			"quantity": "must be less than or equal to 99",
			"mode":     "must be one of: substring whole-word",
		}},
		{"empty list", bulkRequest{Products: []lineRequest{}}, map[string]string{
			"products": "must be at least 1",
		}},
		{"nested path", bulkRequest{Products: []lineRequest{{ProductID: "p1", Size: "M"}, {ProductID: "p2"}}}, map[string]string{
			"products[1].size": "is required",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := Validate(lineRequest{Quantity: 120})
	require.Error(t, err)
	assert.Equal(t,
		"field 'productId' is required; field 'quantity' must be less than or equal to 99; field 'size' is required",
		err.Error())
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		invalid bool
	}{
		{name: "ok", body: `{"productId":"p1","size":"L","quantity":3}`},
		{name: "bad json", body: `{not json`, wantErr: "decode request body"},
		{name: "trailing value", body: `{"productId":"p1","size":"L"} {"x":1}`, wantErr: "unexpected data"},
		{name: "fails validation", body: `{"size":"L"}`, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(tt.body))
			var dst lineRequest
			err := DecodeAndValidate(req, &dst)
			switch {
			case tt.invalid:
				assert.Contains(t, fieldErrors(t, err), "productId")
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, 3, dst.Quantity)
			}
		})
	}
}
