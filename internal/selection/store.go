package selection

import "sync"

// Subscriber is called with the new state after every mutation
type Subscriber func(State)

// Store owns the current State and triggers a recompute on every change
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers []Subscriber
}

// NewStore creates a store starting from initial
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for future mutations
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Dispatch applies the actions as one mutation and notifies subscribers once.
// Subscribers run outside the lock and may call back into the store.
func (s *Store) Dispatch(actions ...Action) State {
	s.mu.Lock()
	next := Reduce(s.state, actions...)
	s.state = next
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}
