package shippingquote

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSequencer(t *testing.T) {
	t.Run("Only latest ticket completes", func(t *testing.T) {
		// given
		sut := &Sequencer{}
		first := sut.Issue("a1|1200")
		second := sut.Issue("a1|1000")

		// then
		assert.True(t, sut.Complete(second))
		assert.False(t, sut.Complete(first))
	})

	t.Run("Cancel invalidates outstanding tickets", func(t *testing.T) {
		// given
		sut := &Sequencer{}
		ticket := sut.Issue("a1|1200")

		// when
		sut.CancelAll()

		// then
		assert.False(t, sut.Complete(ticket))
		assert.True(t, sut.Complete(sut.Issue("a2|1200")))
	})

	t.Run("Caller numbered ticket issued late stays superseded", func(t *testing.T) {
		// given
		sut := &Sequencer{}
		newer := sut.IssueAt(3, "a1|1200")
		older := sut.IssueAt(2, "a1|1200")

		// then
		assert.False(t, sut.Complete(older))
		assert.True(t, sut.Complete(newer))
		assert.Equal(t, uint64(3), sut.Latest())
	})
}

func TestSequencerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a response for sequence N is never applied once a later request was issued", prop.ForAll(
		func(n int, seed int64) bool {
			sut := &Sequencer{}
			tickets := make([]Ticket, 0, n)
			for i := 0; i < n; i++ {
				tickets = append(tickets, sut.Issue(fmt.Sprintf("addr|%d", i)))
			}

			// responses arrive in any order
			rnd := rand.New(rand.NewSource(seed))
			rnd.Shuffle(len(tickets), func(i, j int) { tickets[i], tickets[j] = tickets[j], tickets[i] })

			for _, ticket := range tickets {
				if sut.Complete(ticket) != (ticket.Seq == uint64(n)) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.Int64(),
	))

	properties.Property("nothing issued before a cancel is applied", prop.ForAll(
		func(before int, after int) bool {
			sut := &Sequencer{}
			cancelled := []Ticket{}
			for i := 0; i < before; i++ {
				cancelled = append(cancelled, sut.Issue("old"))
			}
			sut.CancelAll()
			var last *Ticket
			for i := 0; i < after; i++ {
				ticket := sut.Issue("new")
				last = &ticket
			}

			for _, ticket := range cancelled {
				if sut.Complete(ticket) {
					return false
				}
			}
			return last == nil || sut.Complete(*last)
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
