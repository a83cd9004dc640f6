package hybridx_test

import (
	"fmt"
	"sync"
	"testing"

	. "github.com/comalice/hybridx"
)

func TestBlackboardBasic(t *testing.T) {
	bb := NewBlackboard()

	bb.Set("force", 2.5)
	if got := bb.Get("force"); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := bb.Get("missing"); got != nil {
		t.Errorf("expected nil for missing key, got %v", got)
	}

	bb.Delete("force")
	if got := bb.Get("force"); got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestBlackboardFloat(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("f32", float32(1.5))
	bb.Set("int", 3)
	bb.Set("contact", true)
	bb.Set("name", "gripper")

	if v, ok := bb.Float("f32"); !ok || v != 1.5 {
		t.Errorf("f32 = %v, %v", v, ok)
	}
	if v, ok := bb.Float("int"); !ok || v != 3 {
		t.Errorf("int = %v, %v", v, ok)
	}
	if v, ok := bb.Float("contact"); !ok || v != 1 {
		t.Errorf("bool = %v, %v", v, ok)
	}
	if _, ok := bb.Float("name"); ok {
		t.Error("string read as float")
	}
}

func TestBlackboardVersion(t *testing.T) {
	bb := NewBlackboard()
	_, v0 := bb.Snapshot()

	bb.Set("a", 1)
	snap, v1 := bb.Snapshot()
	if v1 <= v0 {
		t.Errorf("version did not advance: %d -> %d", v0, v1)
	}

	// Mutation of snapshot doesn't affect original
	snap["b"] = 2
	if bb.Get("b") != nil {
		t.Error("Snapshot should return a copy")
	}
	if bb.Version() != v1 {
		t.Error("reading changed the version")
	}

	bb.LoadAll(map[string]any{"x": 1})
	if bb.Get("a") != nil || bb.Get("x") != 1 {
		t.Error("LoadAll did not replace data")
	}
	if bb.Version() == v1 {
		t.Error("LoadAll did not advance the version")
	}
}

func TestBlackboardConcurrency(t *testing.T) {
	bb := NewBlackboard()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func(id int) {
			defer wg.Done()
			bb.Set(fmt.Sprintf("key%d", id), id)
		}(i)
		go func(id int) {
			defer wg.Done()
			_ = bb.Get(fmt.Sprintf("key%d", id))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = bb.Snapshot()
		}()
	}
	wg.Wait()
	// No race conditions (run with -race flag)
}
