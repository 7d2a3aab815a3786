package shipping

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

func NewWebService(ruleStore mystore.Store[DeliveryRule]) *webService {
	logger := mylog.New("shipping")
	return &webService{
		logger:  logger,
		service: newService(logger, ruleStore),
	}
}

// Quoter exposes fee calculation to the order service, which recomputes every submitted fee.
func (s *webService) Quoter() *service {
	return s.service
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/shipping/preview", s.previewPage()).Methods("POST")
	router.HandleFunc("/shipping/rules", s.listRulesPage()).Methods("GET")
	router.HandleFunc("/shipping/rules/{ruleId}", s.putRulePage()).Methods("PUT")

	return nil
}

func (s *webService) previewPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		request := checkoutapi.ShippingPreviewRequest{}
		err := myhttp.ParseJSONBody(r, &request)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		quote, err := s.service.Quote(c, request.ItemsSubtotal, request.StateID, request.DistrictID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, quote)
	}
}

func (s *webService) listRulesPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		rules, err := s.service.listRules(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, rules)
	}
}

func (s *webService) putRulePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		rule := DeliveryRule{}
		err := myhttp.ParseJSONBody(r, &rule)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}
		rule.UID = mux.Vars(r)["ruleId"]

		err = s.service.putRule(c, rule)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, rule)
	}
}
