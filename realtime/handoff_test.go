package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/comalice/hybridx"
)

func automata(names ...string) []*hybridx.Automaton {
	out := make([]*hybridx.Automaton, len(names))
	for i, n := range names {
		out[i] = hybridx.NewAutomaton(n)
	}
	return out
}

func TestHandoff_Replace(t *testing.T) {
	h := newHandoff(Replace, 0)
	dropped := 0
	for _, a := range automata("A1", "A2", "A3") {
		n, err := h.push(a)
		if err != nil {
			t.Fatalf("push failed: %v", err)
		}
		dropped += n
	}
	if dropped != 2 {
		t.Errorf("dropped %d, want 2", dropped)
	}
	a, ok := h.tryPop()
	if !ok || a.Name() != "A3" {
		t.Fatalf("tryPop = %v, %v; want A3", a, ok)
	}
	if _, ok := h.tryPop(); ok {
		t.Error("queue not empty after pop")
	}
}

func TestHandoff_Append(t *testing.T) {
	h := newHandoff(Append, 3)
	for _, a := range automata("A1", "A2", "A3") {
		if _, err := h.push(a); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}
	if _, err := h.push(hybridx.NewAutomaton("A4")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	for _, want := range []string{"A1", "A2", "A3"} {
		a, ok := h.tryPop()
		if !ok || a.Name() != want {
			t.Fatalf("tryPop = %v, %v; want %s", a, ok, want)
		}
	}
}

func TestHandoff_TryPopNeverBlocks(t *testing.T) {
	h := newHandoff(Replace, 0)
	h.push(hybridx.NewAutomaton("A1"))

	h.mu.Lock()
	if _, ok := h.tryPop(); ok {
		t.Error("tryPop succeeded while a producer held the lock")
	}
	h.mu.Unlock()

	if a, ok := h.tryPop(); !ok || a.Name() != "A1" {
		t.Errorf("tryPop after unlock = %v, %v", a, ok)
	}
}

func TestHandoff_ConcurrentProducers(t *testing.T) {
	h := newHandoff(Append, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.push(hybridx.NewAutomaton("a"))
			}
		}()
	}

	popped := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := h.tryPop(); ok {
			popped++
			continue
		}
		select {
		case <-done:
			for {
				if _, ok := h.tryPop(); !ok {
					break
				}
				popped++
			}
			if popped != 800 {
				t.Errorf("popped %d, want 800", popped)
			}
			return
		default:
		}
	}
}

func TestParseQueueMode(t *testing.T) {
	for in, want := range map[string]QueueMode{"": Replace, "replace": Replace, "append": Append} {
		got, err := ParseQueueMode(in)
		if err != nil || got != want {
			t.Errorf("ParseQueueMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseQueueMode("lifo"); err == nil {
		t.Error("expected error")
	}
}
