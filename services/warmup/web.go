package warmup

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/mycontext"
	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
)

// Check touches one backing service.
type Check func(c context.Context) error

type webService struct {
	logger mylog.Logger
	checks map[string]Check
}

func NewService(checks map[string]Check) *webService {
	return &webService{
		logger: mylog.New("warmup"),
		checks: checks,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")

	return nil
}

func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.warmup(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Successfully warmed up %d services", len(s.checks)),
		})
	}
}

func (s *webService) warmup(c context.Context) error {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := s.checks[name](c)
		if err != nil {
			return myerrors.NewUnavailableError(fmt.Errorf("error warming up %s: %w", name, err))
		}
		s.logger.Log(c, name, mylog.SeverityDebug, "Warmed up %s", name)
	}
	return nil
}
