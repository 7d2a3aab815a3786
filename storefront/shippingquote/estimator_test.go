package shippingquote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

// gatedClient answers a request only after the test releases it.
type gatedClient struct {
	sync.Mutex
	calls    int32
	received chan checkoutapi.Money
	release  map[checkoutapi.Money]chan error
}

func newGatedClient(subtotals ...checkoutapi.Money) *gatedClient {
	c := &gatedClient{
		received: make(chan checkoutapi.Money, 10),
		release:  map[checkoutapi.Money]chan error{},
	}
	for _, s := range subtotals {
		c.release[s] = make(chan error, 1)
	}
	return c
}

func (c *gatedClient) PreviewShipping(ctx context.Context, request checkoutapi.ShippingPreviewRequest) (checkoutapi.ShippingPreviewResponse, error) {
	atomic.AddInt32(&c.calls, 1)
	c.Lock()
	gate := c.release[request.ItemsSubtotal]
	c.Unlock()

	c.received <- request.ItemsSubtotal
	err := <-gate
	if err != nil {
		return checkoutapi.ShippingPreviewResponse{}, err
	}
	// fee derived from the subtotal so the test can tell responses apart
	return checkoutapi.ShippingPreviewResponse{Fee: request.ItemsSubtotal / 20}, nil
}

type result struct {
	quote Quote
	err   error
}

func TestEstimator(t *testing.T) {
	destination := Destination{AddressID: "a1", StateID: "KA", DistrictID: "BLR"}

	t.Run("Late response of older request is discarded", func(t *testing.T) {
		// given
		client := newGatedClient(checkoutapi.MoneyFromMajor(1200), checkoutapi.MoneyFromMajor(400))
		sut := NewEstimator(client, 0, mytime.RealNower{})

		older := make(chan result, 1)
		go func() {
			q, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(1200), destination)
			older <- result{q, err}
		}()
		<-client.received

		newer := make(chan result, 1)
		go func() {
			q, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(400), destination)
			newer <- result{q, err}
		}()
		<-client.received

		// when
		client.release[checkoutapi.MoneyFromMajor(400)] <- nil
		newest := <-newer
		client.release[checkoutapi.MoneyFromMajor(1200)] <- nil
		stale := <-older

		// then
		require.NoError(t, newest.err)
		assert.Equal(t, checkoutapi.MoneyFromMajor(400), newest.quote.SubtotalAtQuoteTime)
		assert.Equal(t, checkoutapi.MoneyFromMajor(20), newest.quote.Fee)
		assert.ErrorIs(t, stale.err, ErrSuperseded)
	})

	t.Run("Older version arriving last never overrides newer", func(t *testing.T) {
		// given
		client := newGatedClient(checkoutapi.MoneyFromMajor(400))
		sut := NewEstimator(client, 0, mytime.RealNower{})

		newer := make(chan result, 1)
		go func() {
			q, err := sut.QuoteAt(context.TODO(), 7, checkoutapi.MoneyFromMajor(400), destination)
			newer <- result{q, err}
		}()
		<-client.received

		// when
		_, err := sut.QuoteAt(context.TODO(), 6, checkoutapi.MoneyFromMajor(1200), destination)
		client.release[checkoutapi.MoneyFromMajor(400)] <- nil
		newest := <-newer

		// then
		assert.ErrorIs(t, err, ErrSuperseded)
		require.NoError(t, newest.err)
		assert.Equal(t, uint64(7), newest.quote.Seq)
		assert.Equal(t, checkoutapi.MoneyFromMajor(20), newest.quote.Fee)
		assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
	})

	t.Run("Debounced request is never sent", func(t *testing.T) {
		// given
		client := newGatedClient(checkoutapi.MoneyFromMajor(1200), checkoutapi.MoneyFromMajor(400))
		sut := NewEstimator(client, 100*time.Millisecond, mytime.RealNower{})

		first := make(chan result, 1)
		go func() {
			q, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(1200), destination)
			first <- result{q, err}
		}()
		time.Sleep(20 * time.Millisecond)

		// when
		client.release[checkoutapi.MoneyFromMajor(400)] <- nil
		q, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(400), destination)

		// then
		require.NoError(t, err)
		assert.Equal(t, checkoutapi.MoneyFromMajor(20), q.Fee)
		assert.ErrorIs(t, (<-first).err, ErrSuperseded)
		assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
	})

	t.Run("Backend failure makes quote unavailable", func(t *testing.T) {
		// given
		client := newGatedClient(checkoutapi.MoneyFromMajor(1200))
		client.release[checkoutapi.MoneyFromMajor(1200)] <- errors.New("503")
		sut := NewEstimator(client, 0, mytime.RealNower{})

		// when
		_, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(1200), destination)

		// then
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("Cancel discards in-flight request", func(t *testing.T) {
		// given
		client := newGatedClient(checkoutapi.MoneyFromMajor(1200))
		sut := NewEstimator(client, 0, mytime.RealNower{})
		pending := make(chan result, 1)
		go func() {
			q, err := sut.Quote(context.TODO(), checkoutapi.MoneyFromMajor(1200), destination)
			pending <- result{q, err}
		}()
		<-client.received

		// when
		sut.CancelAll()
		client.release[checkoutapi.MoneyFromMajor(1200)] <- nil

		// then
		assert.ErrorIs(t, (<-pending).err, ErrSuperseded)
	})

	t.Run("Quote staleness", func(t *testing.T) {
		// given
		q := Quote{AddressID: "a1", SubtotalAtQuoteTime: checkoutapi.MoneyFromMajor(1200)}

		// then
		assert.False(t, q.IsStaleFor("a1", checkoutapi.MoneyFromMajor(1200)))
		assert.True(t, q.IsStaleFor("a1", checkoutapi.MoneyFromMajor(400)))
		assert.True(t, q.IsStaleFor("a2", checkoutapi.MoneyFromMajor(1200)))
	})
}
