package myhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseJSONBody decodes the request body into target and validates its `validate` struct tags.
func ParseJSONBody(r *http.Request, target any) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing request body: %s", err))
	}

	err = validate.Struct(target)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("invalid request: %s", err))
	}

	return nil
}
