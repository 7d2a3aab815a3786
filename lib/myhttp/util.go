package myhttp

import (
	"errors"
	"fmt"
	"net/http"
	"os"
)

const defaultBaseURL = "http://localhost:8080"

// GuessHostnameWithScheme is used outside of a request, for instance to register push endpoints.
func GuessHostnameWithScheme() string {
	if base := os.Getenv("CHECKOUT_APP_PUBLICBASEURL"); base != "" {
		return base
	}
	return defaultBaseURL
}

func HostnameWithScheme(r *http.Request) string {
	if base := os.Getenv("CHECKOUT_APP_PUBLICBASEURL"); base != "" {
		return base
	}

	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func asReasoner(err error) (Reasoner, bool) {
	for err != nil {
		if r, ok := err.(Reasoner); ok {
			return r, true
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}
