package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type job struct {
	id   string
	data []byte
}

// SubmitDefinition hands a serialized definition to a worker that parses
// it and submits the result. It returns the job ID used in logs. It never
// blocks: when all workers are busy and the buffer is full it returns
// ErrQueueFull. Parse failures are logged and the running automaton is not
// affected.
func (s *Scheduler) SubmitDefinition(data []byte) (string, error) {
	if s.parse == nil {
		return "", ErrNoParser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		return "", ErrNotRunning
	}
	j := job{id: uuid.NewString(), data: data}
	select {
	case s.jobs <- j:
		return j.id, nil
	default:
		return "", fmt.Errorf("definition: %w", ErrQueueFull)
	}
}

func (s *Scheduler) worker(ctx context.Context, jobs <-chan job) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-jobs:
			s.process(ctx, j)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, j job) {
	log := s.log.With("job", j.id)
	a, err := s.parse(ctx, j.data)
	if err != nil {
		s.stats.parses.Add(1)
		log.Error("definition rejected", "error", err)
		return
	}
	if err := s.SubmitAutomaton(a); err != nil {
		s.stats.parses.Add(1)
		log.Error("automaton rejected", "automaton", a.Name(), "error", err)
		return
	}
	log.Info("automaton queued", "automaton", a.Name(), "version", a.Version())
}
