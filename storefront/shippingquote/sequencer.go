package shippingquote

import "sync"

// Ticket identifies one quote request.
type Ticket struct {
	Seq uint64
	Key string
}

// Sequencer decides which quote response may be applied: only the one for the most recently issued
// request, whatever order responses arrive in.
type Sequencer struct {
	sync.Mutex
	latest    uint64
	cancelled uint64
}

func (s *Sequencer) Issue(key string) Ticket {
	s.Lock()
	defer s.Unlock()

	s.latest++
	return Ticket{Seq: s.latest, Key: key}
}

// IssueAt numbers a request with a sequence number chosen by the caller. A number below the latest one
// issued is superseded from the start.
func (s *Sequencer) IssueAt(seq uint64, key string) Ticket {
	s.Lock()
	defer s.Unlock()

	if seq > s.latest {
		s.latest = seq
	}
	return Ticket{Seq: seq, Key: key}
}

func (s *Sequencer) IsCurrent(t Ticket) bool {
	s.Lock()
	defer s.Unlock()

	return s.isCurrent(t)
}

// Complete reports whether the response belonging to the ticket may be applied.
func (s *Sequencer) Complete(t Ticket) bool {
	s.Lock()
	defer s.Unlock()

	return s.isCurrent(t)
}

// CancelAll invalidates every request issued so far.
func (s *Sequencer) CancelAll() {
	s.Lock()
	defer s.Unlock()

	s.cancelled = s.latest
}

func (s *Sequencer) Latest() uint64 {
	s.Lock()
	defer s.Unlock()

	return s.latest
}

func (s *Sequencer) isCurrent(t Ticket) bool {
	return t.Seq == s.latest && t.Seq > s.cancelled
}
