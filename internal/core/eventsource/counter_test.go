package eventsource

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// counter is a minimal aggregate used to exercise the engine without a domain.
type counter struct {
	ID    uuid.UUID
	Open  bool
	Total int
	Adds  []int
}

func (c counter) Clone() counter {
	c.Adds = slices.Clone(c.Adds)
	return c
}

type opened struct{}

func (opened) EventType() string { return "COUNTER_OPENED" }

type added struct {
	N int `json:"n"`
}

func (added) EventType() string { return "COUNTER_ADDED" }

const counterLimit = 100

func newCounterRegistry() *Registry[counter] {
	r := NewRegistry("counter", func(id uuid.UUID) counter { return counter{ID: id} })
	On(r, func(s *counter, _ Event, _ opened) error {
		s.Open = true
		return nil
	})
	On(r, func(s *counter, _ Event, p added) error {
		s.Total += p.N
		s.Adds = append(s.Adds, p.N)
		return nil
	})
	return r
}

func openCounter() CommandFunc[counter] {
	return func(counter) (Payload, error) { return opened{}, nil }
}

func add(n int) CommandFunc[counter] {
	return func(s counter) (Payload, error) {
		if s.Total+n > counterLimit {
			return nil, &ConflictError{Reason: fmt.Sprintf("adding %d exceeds %d", n, counterLimit)}
		}
		return added{N: n}, nil
	}
}
