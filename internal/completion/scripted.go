package completion

import (
	"context"
	"errors"
	"sync"
)

// Scripted replays canned responses in order and records every request.
// It backs offline runs and tests.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	requests  []Request
}

// NewScripted returns a Completer that answers with responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses, errs: make(map[int]error)}
}

// FailAt makes call n (0-based) return err instead of a response.
func (s *Scripted) FailAt(n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.requests)
	s.requests = append(s.requests, req)
	if err, ok := s.errs[n]; ok {
		return "", err
	}
	served := n
	for i := 0; i < n; i++ {
		if _, failed := s.errs[i]; failed {
			served--
		}
	}
	if served >= len(s.responses) {
		return "", Permanent(errors.New("scripted: no responses left"))
	}
	return s.responses[served], nil
}

// Requests returns the requests seen so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
