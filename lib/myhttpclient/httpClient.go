package myhttpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/MarcGrol/checkoutflow/lib/mylog"
)

const (
	defaultTimeout = 5 * time.Second
)

var errServerSide = errors.New("server side failure")

type response struct {
	status int
	body   []byte
}

type jsonHTTPClient struct {
	timeout     time.Duration
	username    string
	password    string
	baseHeaders http.Header
	breaker     *gobreaker.CircuitBreaker[response]
	logger      mylog.Logger
}

type Option func(*jsonHTTPClient)

func WithTimeout(timeout time.Duration) Option {
	return func(c *jsonHTTPClient) {
		c.timeout = timeout
	}
}

func WithBasicAuth(username, password string) Option {
	return func(c *jsonHTTPClient) {
		c.username = username
		c.password = password
	}
}

func WithHeader(key, value string) Option {
	return func(c *jsonHTTPClient) {
		c.baseHeaders.Set(key, value)
	}
}

// WithCircuitBreaker trips after consecutive transport or 5xx failures. Only use it for calls that are safe to
// fail fast: a tripped breaker returns an error without sending anything.
func WithCircuitBreaker(name string, consecutiveFailures uint32, openPeriod time.Duration) Option {
	return func(c *jsonHTTPClient) {
		c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     openPeriod,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil
			},
		})
	}
}

func New(opts ...Option) HTTPSender {
	c := &jsonHTTPClient{
		timeout:     defaultTimeout,
		baseHeaders: http.Header{},
		logger:      mylog.New("myhttpclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *jsonHTTPClient) Send(ctx context.Context, method string, url string, body []byte) (int, []byte, error) {
	return c.SendWithHeaders(ctx, method, url, nil, body)
}

func (c *jsonHTTPClient) SendWithHeaders(ctx context.Context, method string, url string, headers http.Header, body []byte) (int, []byte, error) {
	if c.breaker == nil {
		resp, err := c.do(ctx, method, url, headers, body)
		if err != nil && !errors.Is(err, errServerSide) {
			return 0, []byte{}, err
		}
		return resp.status, resp.body, nil
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		return c.do(ctx, method, url, headers, body)
	})
	if err != nil && !errors.Is(err, errServerSide) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, []byte{}, fmt.Errorf("circuit open for %s %s: %w", method, url, err)
		}
		return 0, []byte{}, err
	}
	return resp.status, resp.body, nil
}

func (c *jsonHTTPClient) do(ctx context.Context, method string, url string, headers http.Header, body []byte) (response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("error creating http request for %s %s: %w", method, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range c.baseHeaders {
		httpReq.Header[key] = values
	}
	for key, values := range headers {
		httpReq.Header[key] = values
	}
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	c.logger.Log(ctx, "", mylog.SeverityDebug, "HTTP request: %s %s", method, url)

	httpClient := &http.Client{
		Timeout: c.timeout,
	}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("error sending %s %s: %w", method, url, err)
	}
	defer httpResp.Body.Close()

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("error reading response %s %s: %w", method, url, err)
	}

	c.logger.Log(ctx, "", mylog.SeverityDebug, "HTTP resp: %d", httpResp.StatusCode)

	resp := response{status: httpResp.StatusCode, body: respPayload}
	if httpResp.StatusCode >= 500 {
		return resp, errServerSide
	}
	return resp, nil
}
