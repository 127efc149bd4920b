package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownTransition = errors.New("unknown transition")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
)

// Store is the single owner of the dashboard state. Every change goes
// through Dispatch; observers get deep copies.
type Store struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	state domain.DashboardState

	// notifyMu keeps notifications in dispatch order. Subscribers may call
	// GetState but must not Dispatch from inside the callback.
	notifyMu sync.Mutex

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(domain.DashboardState)
}

func New(initial domain.DashboardState, logger zerolog.Logger) *Store {
	return &Store{
		logger: logger,
		state:  initial.Clone(),
	}
}

func (s *Store) GetState() domain.DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every committed snapshot. The
// returned func removes it and is safe to call more than once.
func (s *Store) Subscribe(fn func(domain.DashboardState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch applies t. Unknown or invalid transitions leave the state
// untouched and return an error. Subscribers are only notified when the
// state actually changed.
func (s *Store) Dispatch(t Transition) error {
	if t == nil {
		return fmt.Errorf("%w: nil", ErrUnknownTransition)
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next, changed, err := reduce(s.state, t)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrUnknownTransition) {
			s.logger.Warn().Str("transition", t.Name()).Msg("rejected unknown transition")
		}
		return err
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.state = next
	s.mu.Unlock()

	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(next.Clone())
	}
	return nil
}

// DispatchAll applies transitions in order and stops at the first error.
func (s *Store) DispatchAll(ts ...Transition) error {
	for _, t := range ts {
		if err := s.Dispatch(t); err != nil {
			return err
		}
	}
	return nil
}
