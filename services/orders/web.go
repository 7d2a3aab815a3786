package orders

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/myidempotency"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mypublisher"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/services/checkoutevents"
	"github.com/MarcGrol/checkoutflow/services/payments"
)

type webService struct {
	logger    mylog.Logger
	service   *service
	publisher mypublisher.Publisher
}

func NewWebService(cfg Config, orderStore mystore.Store[Order], addresses AddressReader, quoter FeeQuoter, coupons CouponEvaluator,
	gateway payments.Gateway, idempotency myidempotency.Store, nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("orders")
	return &webService{
		logger:    logger,
		service:   newService(cfg, logger, orderStore, addresses, quoter, coupons, gateway, idempotency, nower, uuider, publisher),
		publisher: publisher,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	err := s.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	router.HandleFunc("/checkout", s.checkoutPage()).Methods("POST")
	router.HandleFunc("/payments/verify", s.verifyPage()).Methods("POST")
	router.HandleFunc("/payments/callback", s.callbackPage()).Methods("POST")
	router.HandleFunc("/orders/{orderId}", s.getOrderPage()).Methods("GET")

	return nil
}

func (s *webService) checkoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		request := checkoutapi.CheckoutRequest{}
		err = myhttp.ParseJSONBody(r, &request)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		resp, err := s.service.checkoutOnce(c, r.Header.Get(checkoutapi.IdempotencyKeyHeader), fingerprintOf(body), request)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) verifyPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		request := checkoutapi.VerifyRequest{}
		err := myhttp.ParseJSONBody(r, &request)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		order, err := s.service.verify(c, request)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) callbackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		callback, err := checkoutapi.NewCallbackFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		redirectURL, err := s.service.handleCallback(c, callback)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

func (s *webService) getOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		order, err := s.service.orderRecord(c, mux.Vars(r)["orderId"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
