package hybridx

import "testing"

func holds(v bool) JumpCondition {
	return ConditionFunc(func(ConditionEnv) bool { return v })
}

func TestControlSwitch_Policy(t *testing.T) {
	tests := []struct {
		name   string
		sw     *ControlSwitch
		expect bool
	}{
		{"nil switch", nil, true},
		{"no conditions", NewControlSwitch(All), true},
		{"all true", NewControlSwitch(All, holds(true), holds(true)), true},
		{"all mixed", NewControlSwitch(All, holds(true), holds(false)), false},
		{"any mixed", NewControlSwitch(Any, holds(false), holds(true)), true},
		{"any false", NewControlSwitch(Any, holds(false), holds(false)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sw.Traversable(ConditionEnv{}); got != tt.expect {
				t.Errorf("Traversable() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestControlSwitch_EvaluatesEveryCondition(t *testing.T) {
	calls := 0
	counting := ConditionFunc(func(ConditionEnv) bool { calls++; return true })
	sw := NewControlSwitch(Any, holds(true), counting)
	sw.Traversable(ConditionEnv{})
	if calls != 1 {
		t.Errorf("second condition evaluated %d times, want 1", calls)
	}
}

func TestSensorThreshold_Latch(t *testing.T) {
	cond := &SensorThreshold{Key: "force", Op: Greater, Value: 5, Latch: true}
	sw := NewControlSwitch(All, cond)
	env := func(f float64) ConditionEnv {
		return ConditionEnv{State: State{Sensors: map[string]any{"force": f}}}
	}

	if sw.Traversable(env(1)) {
		t.Fatal("held below threshold")
	}
	if !sw.Traversable(env(6)) {
		t.Fatal("did not hold above threshold")
	}
	if !sw.Traversable(env(0)) {
		t.Fatal("latch released")
	}

	clone := sw.Clone()
	if clone.Traversable(env(0)) {
		t.Error("clone inherited the latch")
	}

	sw.Reset()
	if sw.Traversable(env(0)) {
		t.Error("Reset did not release the latch")
	}
}

func TestSensorThreshold_Missing(t *testing.T) {
	cond := &SensorThreshold{Key: "force", Op: Less, Value: 5}
	if cond.Holds(ConditionEnv{}) {
		t.Error("missing sensor held")
	}
	if cond.Holds(ConditionEnv{State: State{Sensors: map[string]any{"force": "high"}}}) {
		t.Error("non-numeric sensor held")
	}
	if !cond.Holds(ConditionEnv{State: State{Sensors: map[string]any{"force": 3}}}) {
		t.Error("int sensor not read")
	}
}

func TestClockCondition(t *testing.T) {
	rel := ClockCondition{After: 2}
	abs := ClockCondition{After: 2, Absolute: true}
	env := ConditionEnv{T: 5, Elapsed: 1}
	if rel.Holds(env) {
		t.Error("relative clock used scheduler time")
	}
	if !abs.Holds(env) {
		t.Error("absolute clock ignored scheduler time")
	}
}

func TestConfigurationCondition(t *testing.T) {
	c := ConfigurationCondition{Target: []float64{1, 1}, Epsilon: 0.1}
	if !c.Holds(ConditionEnv{State: State{Configuration: []float64{1.05, 1}}}) {
		t.Error("inside region did not hold")
	}
	if c.Holds(ConditionEnv{State: State{Configuration: []float64{1}}}) {
		t.Error("dimension mismatch held")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("any"); err != nil || p != Any {
		t.Errorf("ParsePolicy(any) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("most"); err == nil {
		t.Error("expected error")
	}
	if !Comparison(">=").Valid() || Comparison("=>").Valid() {
		t.Error("Comparison.Valid wrong")
	}
}
