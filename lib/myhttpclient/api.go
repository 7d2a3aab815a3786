package myhttpclient

import (
	"context"
	"net/http"
)

//go:generate mockgen -source=api.go -package myhttpclient -destination httpclient_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, body []byte) (int, []byte, error)
	SendWithHeaders(c context.Context, method string, url string, headers http.Header, body []byte) (int, []byte, error)
}
