package hybridx

import "math"

// Category is the task space a goal controller works in. Goals are pushed
// into controllers by the GoalStrategy registered for their category.
type Category string

const (
	CategoryJoint        Category = "joint"
	CategoryDisplacement Category = "displacement"
	CategoryOrientation  Category = "orientation"
	CategoryTransform    Category = "transform"
)

// Controller is one control term owned by a ControllerSet.
type Controller interface {
	Name() string
	// Period is the control period in seconds.
	Period() float64
	Priority() int
	Activate()
	Deactivate()
	Active() bool
	// Clone returns an inactive deep copy.
	Clone() Controller
}

// GoalController is a controller that can be driven toward a target.
type GoalController interface {
	Controller
	GoalCategory() Category
	// SetGoal interpolates from the current reference to goal over duration
	// seconds. A zero duration jumps to goal.
	SetGoal(goal []float64, duration float64)
}

// Refresher is implemented by on-demand controllers that need a fresh
// measurement from the system before every compute.
type Refresher interface {
	Refresh(sys System)
}

// ReferenceProvider exposes the current interpolated reference.
type ReferenceProvider interface {
	Desired() []float64
}

// ControllerSet turns robot state into a command vector. Implementations
// must be pointer types: a set is owned by exactly one MotionBehaviour and
// ownership is checked by identity.
type ControllerSet interface {
	Period() float64
	AddController(c Controller) error
	Controllers() []Controller
	Activate()
	Deactivate()
	// Compute returns the command for time t. It is called at most once per
	// tick from the control goroutine.
	Compute(t float64, s State) []float64
	// Clone returns a deep copy with cloned controllers.
	Clone() ControllerSet
}

// SamePeriod reports whether two control periods are equal up to rounding.
func SamePeriod(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}
