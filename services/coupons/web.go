package coupons

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/myconfig"
	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mypubsub"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/services/checkoutevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

func NewWebService(couponStore mystore.Store[Coupon], usageStore mystore.Store[Usage], nower mytime.Nower, pubsub mypubsub.PubSub, cfg myconfig.CouponsConfig) *webService {
	logger := mylog.New("coupons")
	return &webService{
		logger:  logger,
		service: newService(logger, couponStore, usageStore, nower, pubsub, newPreviewLimiter(cfg.PreviewsPerMinute, cfg.PreviewBurst, nower)),
	}
}

// Evaluator exposes coupon evaluation to the order service.
func (s *webService) Evaluator() *service {
	return s.service
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/coupons/event", s.handleEventEnvelopePage()).Methods("POST")
	router.HandleFunc("/coupons/{code}/preview", s.previewPage()).Methods("POST")
	router.HandleFunc("/coupons/{code}", s.getCouponPage()).Methods("GET")
	router.HandleFunc("/coupons/{code}", s.putCouponPage()).Methods("PUT")

	return s.service.Subscribe(c)
}

func (s *webService) previewPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		request := checkoutapi.CouponPreviewRequest{}
		err := myhttp.ParseJSONBody(r, &request)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.preview(c, mux.Vars(r)["code"], request)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) getCouponPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		coupon, err := s.service.getCoupon(c, mux.Vars(r)["code"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, coupon)
	}
}

func (s *webService) putCouponPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		coupon := Coupon{}
		err := myhttp.ParseJSONBody(r, &coupon)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}
		coupon.Code = mux.Vars(r)["code"]

		err = s.service.putCoupon(c, coupon)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Coupon stored"})
	}
}

func (s *webService) handleEventEnvelopePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{Message: "Event processed"})
	}
}
