package paymentwidget

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

// LinkOpener shows a url to the shopper, in a browser or otherwise.
type LinkOpener interface {
	Open(ctx context.Context, link string) error
}

// RedirectWidget sends the shopper to the gateway's hosted checkout page and waits for the gateway
// to redirect back with the outcome as a form post.
type RedirectWidget struct {
	sync.Mutex
	opener  LinkOpener
	waiting map[string]chan checkoutapi.CallbackForm
	logger  mylog.Logger
}

func NewRedirectWidget(opener LinkOpener) *RedirectWidget {
	return &RedirectWidget{
		opener:  opener,
		waiting: map[string]chan checkoutapi.CallbackForm{},
		logger:  mylog.New("redirectwidget"),
	}
}

func (w *RedirectWidget) Open(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
	if intent.CheckoutURL == "" {
		return GatewayResult{}, fmt.Errorf("gateway order %s has no hosted checkout page", intent.GatewayOrderID)
	}

	ch := make(chan checkoutapi.CallbackForm, 1)
	w.Lock()
	w.waiting[intent.GatewayOrderID] = ch
	w.Unlock()
	defer func() {
		w.Lock()
		delete(w.waiting, intent.GatewayOrderID)
		w.Unlock()
	}()

	err := w.opener.Open(ctx, intent.CheckoutURL)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("error opening checkout page: %w", err)
	}

	select {
	case <-ctx.Done():
		return GatewayResult{}, ctx.Err()
	case callback := <-ch:
		if callback.Failed() {
			return GatewayResult{}, &FailedError{Code: callback.ErrorCode, Description: callback.ErrorDescription}
		}
		return GatewayResult{
			GatewayOrderID:   callback.GatewayOrderID,
			GatewayPaymentID: callback.GatewayPaymentID,
			Signature:        callback.Signature,
		}, nil
	}
}

// ServeHTTP receives the gateway redirect.
func (w *RedirectWidget) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	c := mycontext.ContextFromHTTPRequest(r)
	writer := myhttp.NewWriter(w.logger)

	callback, err := checkoutapi.NewCallbackFromRequest(r)
	if err != nil {
		writer.WriteError(c, rw, 1, err)
		return
	}

	w.Lock()
	ch, found := w.waiting[callback.GatewayOrderID]
	w.Unlock()
	if !found {
		w.logger.Log(c, callback.GatewayOrderID, mylog.SeverityWarn, "No open payment for gateway order %s", callback.GatewayOrderID)
		writer.Write(c, rw, http.StatusGone, myhttp.SuccessResponse{Message: "Payment window already closed"})
		return
	}

	select {
	case ch <- callback:
	default:
	}

	writer.Write(c, rw, http.StatusOK, myhttp.SuccessResponse{Message: "Payment received, you can close this window"})
}
