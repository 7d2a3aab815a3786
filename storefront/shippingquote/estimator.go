// Package shippingquote asks the backend for delivery fees while the shopper edits the cart or address.
// Requests are debounced and sequence numbered; a response to a superseded request is never returned.
package shippingquote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

var (
	// ErrSuperseded means a newer request was issued; the caller must ignore this one.
	ErrSuperseded = errors.New("shipping quote superseded")
	// ErrUnavailable means no quote could be obtained. Payment stays blocked until a retry succeeds.
	ErrUnavailable = errors.New("shipping quote unavailable")
)

type Destination struct {
	AddressID  string
	StateID    string
	DistrictID string
}

// Quote is valid only for the subtotal and address it was computed for.
type Quote struct {
	AddressID           string
	SubtotalAtQuoteTime checkoutapi.Money
	Fee                 checkoutapi.Money
	FreeShippingApplied bool
	ComputedAt          time.Time
	Seq                 uint64
}

func (q Quote) IsStaleFor(addressID string, subtotal checkoutapi.Money) bool {
	return q.AddressID != addressID || q.SubtotalAtQuoteTime != subtotal
}

type QuoteClient interface {
	PreviewShipping(ctx context.Context, request checkoutapi.ShippingPreviewRequest) (checkoutapi.ShippingPreviewResponse, error)
}

type Estimator struct {
	client    QuoteClient
	sequencer *Sequencer
	debounce  time.Duration
	nower     mytime.Nower
	logger    mylog.Logger
}

func NewEstimator(client QuoteClient, debounce time.Duration, nower mytime.Nower) *Estimator {
	return &Estimator{
		client:    client,
		sequencer: &Sequencer{},
		debounce:  debounce,
		nower:     nower,
		logger:    mylog.New("shippingquote"),
	}
}

func (e *Estimator) Quote(ctx context.Context, subtotal checkoutapi.Money, destination Destination) (Quote, error) {
	return e.quote(ctx, e.sequencer.Issue(keyOf(subtotal, destination)), subtotal, destination)
}

// QuoteAt numbers the request with the caller's own version instead of an internal counter. Of all
// requests in flight, only the one with the highest version gets an answer.
func (e *Estimator) QuoteAt(ctx context.Context, seq uint64, subtotal checkoutapi.Money, destination Destination) (Quote, error) {
	return e.quote(ctx, e.sequencer.IssueAt(seq, keyOf(subtotal, destination)), subtotal, destination)
}

func keyOf(subtotal checkoutapi.Money, destination Destination) string {
	return fmt.Sprintf("%s|%s", destination.AddressID, subtotal)
}

func (e *Estimator) quote(ctx context.Context, ticket Ticket, subtotal checkoutapi.Money, destination Destination) (Quote, error) {
	if !e.sequencer.IsCurrent(ticket) {
		return Quote{}, ErrSuperseded
	}
	if e.debounce > 0 {
		timer := time.NewTimer(e.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Quote{}, fmt.Errorf("%w: %s", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
	if !e.sequencer.IsCurrent(ticket) {
		return Quote{}, ErrSuperseded
	}

	resp, err := e.client.PreviewShipping(ctx, checkoutapi.ShippingPreviewRequest{
		ItemsSubtotal: subtotal,
		StateID:       destination.StateID,
		DistrictID:    destination.DistrictID,
	})
	if !e.sequencer.Complete(ticket) {
		e.logger.Log(ctx, destination.AddressID, mylog.SeverityDebug, "Discarded quote %d for %s", ticket.Seq, ticket.Key)
		return Quote{}, ErrSuperseded
	}
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	return Quote{
		AddressID:           destination.AddressID,
		SubtotalAtQuoteTime: subtotal,
		Fee:                 resp.Fee,
		FreeShippingApplied: resp.FreeShippingApplied,
		ComputedAt:          e.nower.Now(),
		Seq:                 ticket.Seq,
	}, nil
}

// CancelAll makes every outstanding request return ErrSuperseded.
func (e *Estimator) CancelAll() {
	e.sequencer.CancelAll()
}
