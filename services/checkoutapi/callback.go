package checkoutapi

import (
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
)

// CallbackForm is posted by the gateway when it redirects the browser back after payment.
type CallbackForm struct {
	GatewayOrderID   string `form:"gateway_order_id"`
	GatewayPaymentID string `form:"gateway_payment_id"`
	Signature        string `form:"signature"`
	ErrorCode        string `form:"error_code"`
	ErrorDescription string `form:"error_description"`
}

func (f CallbackForm) Failed() bool {
	return f.ErrorCode != ""
}

func NewCallbackFromRequest(r *http.Request) (CallbackForm, error) {
	err := r.ParseForm()
	if err != nil {
		return CallbackForm{}, myerrors.NewInvalidInputError(err)
	}
	return NewCallbackFromValues(r.Form)
}

func NewCallbackFromValues(values url.Values) (CallbackForm, error) {
	callback := CallbackForm{}
	err := formcodec.NewDecoder().Decode(&callback, values)
	if err != nil {
		return callback, myerrors.NewInvalidInputError(fmt.Errorf("error decoding callback form: %w", err))
	}
	if !callback.Failed() && (callback.GatewayOrderID == "" || callback.GatewayPaymentID == "" || callback.Signature == "") {
		return callback, myerrors.NewInvalidInputErrorf("incomplete callback for gateway order %q", callback.GatewayOrderID)
	}
	return callback, nil
}

func (f CallbackForm) ToValues() (url.Values, error) {
	return formcodec.NewEncoder().Encode(f)
}
