package myhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
)

type reasonedError struct{ reason string }

func (e reasonedError) Error() string  { return "rejected: " + e.reason }
func (e reasonedError) Reason() string { return e.reason }

type sampleRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	Amount     int64  `json:"amount" validate:"gte=0"`
}

func TestResponseWriter(t *testing.T) {
	c := context.TODO()
	writer := NewWriter(mylog.New("myhttp"))

	t.Run("Write error with reason", func(t *testing.T) {
		response := httptest.NewRecorder()
		writer.WriteError(c, response, 3, myerrors.NewUnprocessableError(fmt.Errorf("wrapped: %w", reasonedError{reason: "EXPIRED"})))

		assert.Equal(t, 422, response.Code)
		assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
		resp := ErrorResponse{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.ErrorCode)
		assert.Equal(t, "EXPIRED", resp.Reason)
	})

	t.Run("Write plain error", func(t *testing.T) {
		response := httptest.NewRecorder()
		writer.WriteError(c, response, 1, errors.New("boom"))

		assert.Equal(t, 500, response.Code)
		assert.NotContains(t, response.Body.String(), "Reason")
	})

	t.Run("Write success", func(t *testing.T) {
		response := httptest.NewRecorder()
		writer.Write(c, response, http.StatusCreated, SuccessResponse{Message: "ok"})

		assert.Equal(t, 201, response.Code)
		assert.Contains(t, response.Body.String(), `"Message": "ok"`)
	})
}

func TestParseJSONBody(t *testing.T) {
	t.Run("Valid body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"customerId":"c1","amount":12}`))
		req := sampleRequest{}
		assert.NoError(t, ParseJSONBody(request, &req))
		assert.Equal(t, sampleRequest{CustomerID: "c1", Amount: 12}, req)
	})

	t.Run("Missing required field", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"amount":12}`))
		err := ParseJSONBody(request, &sampleRequest{})
		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})

	t.Run("Malformed json", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`))
		err := ParseJSONBody(request, &sampleRequest{})
		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}

func TestHostname(t *testing.T) {
	t.Run("From request", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/x", nil)
		request.Host = "shop.example.com"
		assert.Equal(t, "http://shop.example.com", HostnameWithScheme(request))
	})

	t.Run("Configured base url wins", func(t *testing.T) {
		t.Setenv("CHECKOUT_APP_PUBLICBASEURL", "https://checkout.example.com")
		request := httptest.NewRequest(http.MethodGet, "/x", nil)
		assert.Equal(t, "https://checkout.example.com", HostnameWithScheme(request))
		assert.Equal(t, "https://checkout.example.com", GuessHostnameWithScheme())
	})

	t.Run("Guess defaults to localhost", func(t *testing.T) {
		t.Setenv("CHECKOUT_APP_PUBLICBASEURL", "")
		assert.Equal(t, "http://localhost:8080", GuessHostnameWithScheme())
	})
}
