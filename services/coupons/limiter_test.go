package coupons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
)

func TestPreviewLimiter(t *testing.T) {
	t.Run("Throttles per customer", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		nower := mytime.NewMockNower(ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		sut := newPreviewLimiter(6, 2, nower)

		// then
		assert.True(t, sut.Allow("cust1"))
		assert.True(t, sut.Allow("cust1"))
		assert.False(t, sut.Allow("cust1"))
		assert.True(t, sut.Allow("cust2"))
	})

	t.Run("Idle customers are forgotten", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		now := mytime.ExampleTime
		nower := mytime.NewMockNower(ctrl)
		nower.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()
		sut := newPreviewLimiter(6, 2, nower)

		// given
		for _, customerID := range []string{"cust1", "cust1", "cust1", "cust2"} {
			sut.Allow(customerID)
		}
		assert.Equal(t, 2, sut.size())

		// when
		now = now.Add(2 * time.Minute)
		allowed := sut.Allow("cust3")

		// then
		assert.True(t, allowed)
		assert.Equal(t, 1, sut.size())
		assert.True(t, sut.Allow("cust1"))
	})

	t.Run("Disabled", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		sut := newPreviewLimiter(0, 0, mytime.NewMockNower(ctrl))

		// then
		assert.True(t, sut.Allow("cust1"))
		assert.Equal(t, 0, sut.size())
	})
}
