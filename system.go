package hybridx

// System is the robot as seen by the runtime: it reports its configuration
// and velocity and accepts a command vector once per tick.
type System interface {
	Configuration() []float64
	Velocity() []float64
	ApplyCommand(cmd []float64) error
}

// PoseSensor is implemented by systems that can report the end-effector
// pose. Displacement, orientation and transform goals and operational-space
// milestones need it; without it they fall back to the configuration vector.
type PoseSensor interface {
	EndEffectorPose() Pose
}

// Pose is an end-effector position and orientation.
type Pose struct {
	Position    [3]float64
	Orientation Quaternion
}

// State is the measured robot state for one tick. Slices are owned by the
// tick and must not be retained by callees.
type State struct {
	Configuration []float64
	Velocity      []float64
	// Pose is nil when the system has no PoseSensor.
	Pose *Pose
	// Sensors holds the latest blackboard snapshot. Read-only.
	Sensors map[string]any
}

// Progress is how far the active behaviour has come since activation.
type Progress struct {
	Elapsed        float64
	TimeToConverge float64
}

// ReadState samples sys into a State.
func ReadState(sys System) State {
	s := State{
		Configuration: sys.Configuration(),
		Velocity:      sys.Velocity(),
	}
	if ps, ok := sys.(PoseSensor); ok {
		p := ps.EndEffectorPose()
		s.Pose = &p
	}
	return s
}

// Position returns the end-effector position, or the first three
// configuration values when no pose is available.
func (s State) Position() []float64 {
	if s.Pose != nil {
		return s.Pose.Position[:]
	}
	out := make([]float64, 3)
	copy(out, s.Configuration)
	return out
}

// Orientation returns the end-effector orientation, or the orientation
// encoded as roll/pitch/yaw in configuration[3:6] when no pose is available.
func (s State) Orientation() Quaternion {
	if s.Pose != nil {
		return s.Pose.Orientation
	}
	var rpy [3]float64
	if len(s.Configuration) > 3 {
		copy(rpy[:], s.Configuration[3:])
	}
	return QuaternionFromRPY(rpy[0], rpy[1], rpy[2])
}
