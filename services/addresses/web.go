package addresses

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

func NewWebService(addressStore mystore.Store[checkoutapi.Address]) *webService {
	logger := mylog.New("addresses")
	return &webService{
		logger:  logger,
		service: newService(logger, addressStore),
	}
}

// Reader exposes the address lookup to other services in the same process.
func (s *webService) Reader() *service {
	return s.service
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/addresses", s.listAddressesPage()).Methods("GET")
	router.HandleFunc("/addresses/{addressId}", s.putAddressPage()).Methods("PUT")

	return nil
}

func (s *webService) listAddressesPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		customerID := r.URL.Query().Get("customerId")
		if customerID == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing customerId")))
			return
		}

		addresses, err := s.service.listAddresses(c, customerID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, addresses)
	}
}

func (s *webService) putAddressPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		address := checkoutapi.Address{}
		err := myhttp.ParseJSONBody(r, &address)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}
		address.ID = mux.Vars(r)["addressId"]
		if address.CustomerID == "" || address.CountryID == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("address needs a customerId and a countryId")))
			return
		}

		err = s.service.putAddress(c, address)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, address)
	}
}
