package hybridx

import (
	"fmt"
	"maps"
	"math"
)

// Interpolation holds the per-behaviour timing constraints. Non-positive
// values mean "not specified".
type Interpolation struct {
	MaxVelocity float64
	MinTime     float64
}

// CategoryDefaults are used when a behaviour specifies no maximum velocity.
type CategoryDefaults struct {
	MaxVelocity float64
	// AngularVelocity bounds the rotational part of transform goals.
	AngularVelocity float64
	MinTime         float64
}

// InterpolationDefaults maps each category to its defaults.
type InterpolationDefaults map[Category]CategoryDefaults

// DefaultInterpolation returns the stock defaults: 0.30 rad/s and 5 s for
// joint goals, 0.20 m/s and 5 s for displacement goals, 0.5 rad/s and 10 s
// for orientation goals, and 0.20 m/s, 0.5 rad/s and 10 s for transforms.
func DefaultInterpolation() InterpolationDefaults {
	return InterpolationDefaults{
		CategoryJoint:        {MaxVelocity: 0.30, MinTime: 5},
		CategoryDisplacement: {MaxVelocity: 0.20, MinTime: 5},
		CategoryOrientation:  {MaxVelocity: 0.5, MinTime: 10},
		CategoryTransform:    {MaxVelocity: 0.20, AngularVelocity: 0.5, MinTime: 10},
	}
}

// GoalStrategy knows how to turn a milestone into a goal for one category
// and how long a cubic interpolation toward it needs.
type GoalStrategy interface {
	// Target extracts the part of a milestone configuration the category drives.
	Target(configuration []float64) ([]float64, error)
	// Measure returns the current value in the category's space.
	Measure(s State) []float64
	// RequiredTime returns the interpolation time from current to target.
	RequiredTime(current, target []float64, p Interpolation, d CategoryDefaults) float64
}

// GoalStrategies maps categories to strategies. New categories are added by
// registering a strategy.
type GoalStrategies map[Category]GoalStrategy

// DefaultGoalStrategies returns a fresh map with the four built-in categories.
func DefaultGoalStrategies() GoalStrategies {
	return GoalStrategies{
		CategoryJoint:        jointGoal{},
		CategoryDisplacement: displacementGoal{},
		CategoryOrientation:  orientationGoal{},
		CategoryTransform:    transformGoal{},
	}
}

// With returns a copy of gs with s registered for c.
func (gs GoalStrategies) With(c Category, s GoalStrategy) GoalStrategies {
	out := maps.Clone(gs)
	if out == nil {
		out = GoalStrategies{}
	}
	out[c] = s
	return out
}

// interpolationTime starts from the minimum time and, when a maximum velocity
// is given or no minimum time is, raises it to the time required at that
// velocity (falling back to the category defaults).
func interpolationTime(p Interpolation, d CategoryDefaults, required func(v float64) float64) float64 {
	t := math.Max(p.MinTime, 0)
	if p.MaxVelocity > 0 || p.MinTime <= 0 {
		v := p.MaxVelocity
		if v <= 0 {
			v = d.MaxVelocity
			t = d.MinTime
		}
		t = math.Max(t, required(v))
	}
	return t
}

// cubicTime is the worst-case duration of a rest-to-rest cubic over delta at
// peak velocity v.
func cubicTime(delta, v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Abs(6 * delta / (4 * v))
}

func perDimensionTime(current, target []float64, v float64) float64 {
	var t float64
	for i := range target {
		var c float64
		if i < len(current) {
			c = current[i]
		}
		t = math.Max(t, cubicTime(target[i]-c, v))
	}
	return t
}

type jointGoal struct{}

func (jointGoal) Target(cfg []float64) ([]float64, error) {
	if len(cfg) == 0 {
		return nil, fmt.Errorf("joint goal: empty configuration: %w", ErrDimensionMismatch)
	}
	return cfg, nil
}

func (jointGoal) Measure(s State) []float64 { return s.Configuration }

func (jointGoal) RequiredTime(current, target []float64, p Interpolation, d CategoryDefaults) float64 {
	return interpolationTime(p, d, func(v float64) float64 {
		return perDimensionTime(current, target, v)
	})
}

type displacementGoal struct{}

func (displacementGoal) Target(cfg []float64) ([]float64, error) {
	if len(cfg) < 3 {
		return nil, fmt.Errorf("displacement goal needs 3 values, got %d: %w", len(cfg), ErrDimensionMismatch)
	}
	return cfg[:3], nil
}

func (displacementGoal) Measure(s State) []float64 { return s.Position() }

func (displacementGoal) RequiredTime(current, target []float64, p Interpolation, d CategoryDefaults) float64 {
	return interpolationTime(p, d, func(v float64) float64 {
		dist, _ := Distance(current, target)
		return cubicTime(dist, v)
	})
}

type orientationGoal struct{}

// Target takes roll, pitch and yaw from a 6-value pose or a bare 3-value
// orientation.
func (orientationGoal) Target(cfg []float64) ([]float64, error) {
	switch len(cfg) {
	case 3:
		return cfg, nil
	case 6:
		return cfg[3:6], nil
	default:
		return nil, fmt.Errorf("orientation goal needs 3 or 6 values, got %d: %w", len(cfg), ErrDimensionMismatch)
	}
}

func (orientationGoal) Measure(s State) []float64 {
	r, p, y := RPY(s.Orientation())
	return []float64{r, p, y}
}

func (orientationGoal) RequiredTime(current, target []float64, p Interpolation, d CategoryDefaults) float64 {
	return interpolationTime(p, d, func(v float64) float64 {
		return cubicTime(rpyDistance(current, target), v)
	})
}

type transformGoal struct{}

func (transformGoal) Target(cfg []float64) ([]float64, error) {
	if len(cfg) != 6 {
		return nil, fmt.Errorf("transform goal needs 6 values, got %d: %w", len(cfg), ErrDimensionMismatch)
	}
	return cfg, nil
}

func (transformGoal) Measure(s State) []float64 {
	pos := s.Position()
	r, p, y := RPY(s.Orientation())
	return []float64{pos[0], pos[1], pos[2], r, p, y}
}

func (transformGoal) RequiredTime(current, target []float64, p Interpolation, d CategoryDefaults) float64 {
	return interpolationTime(p, d, func(v float64) float64 {
		dist, _ := Distance(current[:3], target[:3])
		w := d.AngularVelocity
		if w <= 0 {
			w = v
		}
		return math.Max(cubicTime(dist, v), cubicTime(rpyDistance(current[3:], target[3:]), w))
	})
}

func rpyDistance(a, b []float64) float64 {
	if len(a) < 3 || len(b) < 3 {
		return 0
	}
	return AngularDistance(QuaternionFromRPY(a[0], a[1], a[2]), QuaternionFromRPY(b[0], b[1], b[2]))
}
