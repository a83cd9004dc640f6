package extensibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hybridx"
)

func TestExprCondition(t *testing.T) {
	state := hybridx.State{
		Configuration: []float64{0.1, 0.2},
		Velocity:      []float64{0, 0},
		Sensors:       map[string]any{"force": 6.0, "contact": true},
	}
	tests := []struct {
		expr string
		env  hybridx.ConditionEnv
		want bool
	}{
		{"sensors.force > 5", hybridx.ConditionEnv{State: state}, true},
		{"sensors.force > 10", hybridx.ConditionEnv{State: state}, false},
		{"sensors.contact == true", hybridx.ConditionEnv{State: state}, true},
		{"elapsed >= 1.5", hybridx.ConditionEnv{Elapsed: 1.5, State: state}, true},
		{"t < 1", hybridx.ConditionEnv{T: 2, State: state}, false},
		{"q[1] > q[0]", hybridx.ConditionEnv{State: state}, true},
		{"len(qdot) == 2 && qdot[0] == 0", hybridx.ConditionEnv{State: state}, true},
		{"'torque' in sensors", hybridx.ConditionEnv{State: state}, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := NewExprCondition(tt.expr, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Holds(tt.env))
			assert.Equal(t, tt.expr, c.Source())
		})
	}
}

func TestExprConditionCompileErrors(t *testing.T) {
	for _, src := range []string{"", "sensors.force >", "t + 1", "unknown > 1"} {
		_, err := NewExprCondition(src, nil, nil)
		assert.Error(t, err, src)
	}
}

func TestExprConditionRuntimeError(t *testing.T) {
	c, err := NewExprCondition("sensors.force > 5", nil, nil)
	require.NoError(t, err)

	// missing sensor compares nil
	assert.False(t, c.Holds(hybridx.ConditionEnv{}))
	assert.True(t, c.failing)

	assert.True(t, c.Holds(hybridx.ConditionEnv{State: hybridx.State{Sensors: map[string]any{"force": 7.0}}}))
	assert.False(t, c.failing)
}

func TestExprConditionSharesPrograms(t *testing.T) {
	cache, err := NewProgramCache(DefaultExprCacheSize)
	require.NoError(t, err)
	a, err := NewExprCondition("t > 3", cache, nil)
	require.NoError(t, err)
	b, err := NewExprCondition("t > 3", cache, nil)
	require.NoError(t, err)
	assert.Same(t, a.program, b.program)
	assert.Equal(t, 1, cache.Len())

	clone := a.Clone().(*ExprCondition)
	assert.Same(t, a.program, clone.program)
	assert.True(t, clone.Holds(hybridx.ConditionEnv{T: 4}))
}

func TestExprConditionCachesAreIndependent(t *testing.T) {
	one, err := NewProgramCache(DefaultExprCacheSize)
	require.NoError(t, err)
	two, err := NewProgramCache(DefaultExprCacheSize)
	require.NoError(t, err)

	a, err := NewExprCondition("t > 3", one, nil)
	require.NoError(t, err)
	b, err := NewExprCondition("t > 3", two, nil)
	require.NoError(t, err)
	assert.NotSame(t, a.program, b.program)

	uncached, err := NewExprCondition("t > 3", nil, nil)
	require.NoError(t, err)
	assert.NotSame(t, a.program, uncached.program)
	assert.Equal(t, 1, one.Len())
}

func TestProgramCacheEviction(t *testing.T) {
	cache, err := NewProgramCache(1)
	require.NoError(t, err)
	a, err := NewExprCondition("t > 10", cache, nil)
	require.NoError(t, err)
	_, err = NewExprCondition("t > 20", cache, nil)
	require.NoError(t, err)

	// evicted by the second program
	again, err := NewExprCondition("t > 10", cache, nil)
	require.NoError(t, err)
	assert.NotSame(t, a.program, again.program)
	assert.Equal(t, 1, cache.Len())

	_, err = NewProgramCache(0)
	assert.Error(t, err)
}
