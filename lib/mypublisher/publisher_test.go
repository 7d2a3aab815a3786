package mypublisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutflow/lib/myevents"
	"github.com/MarcGrol/checkoutflow/lib/mypubsub"
	"github.com/MarcGrol/checkoutflow/lib/myqueue"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
)

type orderPaid struct {
	OrderID string
}

func (e orderPaid) GetEventTypeName() string { return "order.paid" }
func (e orderPaid) GetAggregateName() string { return e.OrderID }

func TestTransactionalPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	outbox, _, _ := mystore.NewInMemoryStore[myevents.EventEnvelope](c)
	queue := myqueue.NewFake()
	pubsub := mypubsub.NewFake()
	sut := newTransactionalPublisher(outbox, pubsub, queue, nower)

	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	t.Run("Publish stores envelope and enqueues trigger", func(t *testing.T) {
		// when
		err := sut.Publish(c, "orders", orderPaid{OrderID: "ord_1"})

		// then
		require.NoError(t, err)
		tasks := queue.Enqueued()
		require.Len(t, tasks, 1)
		assert.Contains(t, tasks[0].WebhookURLPath, "/pubsub/orders/")
		envelopes, _ := outbox.List(c)
		require.Len(t, envelopes, 1)
		assert.False(t, envelopes[0].Published)
		assert.Equal(t, "order.paid", envelopes[0].EventTypeName)
	})

	t.Run("Publishing the same event twice is deduplicated", func(t *testing.T) {
		// when
		err := sut.Publish(c, "orders", orderPaid{OrderID: "ord_1"})

		// then
		require.NoError(t, err)
		assert.Len(t, queue.Enqueued(), 1)
		envelopes, _ := outbox.List(c)
		assert.Len(t, envelopes, 1)
	})

	t.Run("Trigger publishes pending envelopes", func(t *testing.T) {
		// given
		request, _ := http.NewRequest(http.MethodPut, queue.Enqueued()[0].WebhookURLPath, nil)
		response := httptest.NewRecorder()

		// when
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		published := pubsub.Published("orders")
		require.Len(t, published, 1)

		envelope := myevents.EventEnvelope{}
		require.NoError(t, json.Unmarshal([]byte(published[0]), &envelope))
		assert.Equal(t, "ord_1", envelope.AggregateUID)

		envelopes, _ := outbox.List(c)
		assert.True(t, envelopes[0].Published)
	})

	t.Run("Second trigger publishes nothing", func(t *testing.T) {
		// given
		request, _ := http.NewRequest(http.MethodPut, "/pubsub/orders/whatever", nil)
		response := httptest.NewRecorder()

		// when
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Len(t, pubsub.Published("orders"), 1)
	})
}
