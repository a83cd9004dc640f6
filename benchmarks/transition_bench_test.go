// Package benchmarks provides performance benchmarks for transition decisions.
package benchmarks

import (
	"fmt"
	"testing"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/internal/core"
	"github.com/comalice/hybridx/internal/primitives"
)

func mustCompile(b *testing.B, cfg *primitives.AutomatonConfig) *hybridx.Automaton {
	b.Helper()
	a, err := core.NewCompiler(core.WithPeriod(Period)).Compile(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return a
}

func BenchmarkLocalCriterion(b *testing.B) {
	for _, width := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("edges=%d", width), func(b *testing.B) {
			a := mustCompile(b, GenFanConfig(width, 6))
			q := hybridx.Query{
				From:      a.Start(),
				Automaton: a,
				Changed:   true,
				State:     hybridx.State{Sensors: map[string]any{"force": 0.0}},
			}
			var c hybridx.LocalCriterion
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if c.Next(q) == nil {
					b.Fatal("no edge chosen")
				}
			}
		})
	}
}

func BenchmarkGoalDirectedCriterion(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("milestones=%d", n), func(b *testing.B) {
			a := mustCompile(b, GenChainConfig(n, 6))
			q := hybridx.Query{From: a.Start(), Automaton: a, Changed: true}
			var c hybridx.GoalDirectedCriterion
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if c.Next(q) == nil {
					b.Fatal("no edge chosen")
				}
			}
		})
	}
}

func BenchmarkControlSwitch(b *testing.B) {
	sw := hybridx.NewControlSwitch(hybridx.All,
		hybridx.ClockCondition{After: 1},
		&hybridx.SensorThreshold{Key: "force", Op: hybridx.Greater, Value: 5},
		hybridx.ConfigurationCondition{Target: []float64{0, 0, 0, 0, 0, 0}, Epsilon: 0.1},
	)
	env := hybridx.ConditionEnv{
		Elapsed: 2,
		State: hybridx.State{
			Configuration: make([]float64, 6),
			Sensors:       map[string]any{"force": 6.0},
		},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !sw.Traversable(env) {
			b.Fatal("switch closed")
		}
	}
}
