package hybridx

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation quaternion (Real is the scalar part).
type Quaternion = quat.Number

// IdentityQuaternion is the zero rotation.
var IdentityQuaternion = Quaternion{Real: 1}

// QuaternionFromRPY builds a rotation from roll, pitch and yaw (ZYX order).
func QuaternionFromRPY(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return Quaternion{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// RPY returns roll, pitch and yaw of q (ZYX order).
func RPY(q Quaternion) (roll, pitch, yaw float64) {
	q = normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch = math.Asin(clamp(2*(w*y-z*x), -1, 1))
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// AngularDistance is acos(|<a,b>|) of the normalized quaternions, in [0, π/2].
func AngularDistance(a, b Quaternion) float64 {
	a, b = normalize(a), normalize(b)
	d := math.Abs(a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag)
	return math.Acos(clamp(d, 0, 1))
}

func normalize(q Quaternion) Quaternion {
	n := quat.Abs(q)
	if n == 0 {
		return IdentityQuaternion
	}
	return quat.Scale(1/n, q)
}

// Distance is the Euclidean distance between a and b. ok is false when the
// dimensions differ.
func Distance(a, b []float64) (d float64, ok bool) {
	if len(a) != len(b) {
		return math.Inf(1), false
	}
	if len(a) == 0 {
		return 0, true
	}
	return floats.Distance(a, b, 2), true
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
