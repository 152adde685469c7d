package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is an orientation (w, x, y, z) in the Earth-fixed frame.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity returns the quaternion of the null rotation.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// Mul returns the Hamilton product q·p. The product is not commutative:
// p is the rotation applied first.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), p.number()))
}

// Conj returns the conjugate of q.
func (q Quaternion) Conj() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Norm returns |q|.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// IsFinite reports whether every component is a finite number.
func (q Quaternion) IsFinite() bool {
	for _, v := range q.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Array returns the components scalar first: w, x, y, z.
func (q Quaternion) Array() [4]float64 {
	return [4]float64{q.W, q.X, q.Y, q.Z}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.9f, %.9f, %.9f, %.9f)", q.W, q.X, q.Y, q.Z)
}

// QuaternionFromEuler builds the quaternion of an intrinsic heading, pitch,
// roll sequence. Angles are in radians.
func QuaternionFromEuler(heading, pitch, roll float64) Quaternion {
	cy := math.Cos(heading * 0.5)
	sy := math.Sin(heading * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)

	return Quaternion{
		W: cy*cp*cr + sy*sp*sr,
		X: cy*cp*sr - sy*sp*cr,
		Y: sy*cp*sr + cy*sp*cr,
		Z: sy*cp*cr - cy*sp*sr,
	}
}

// Euler extracts heading, pitch and roll (radians) from a unit quaternion.
// It inverts QuaternionFromEuler away from pitch = ±90°.
func (q Quaternion) Euler() (heading, pitch, roll float64) {
	sinPitch := 2 * (q.W*q.Y - q.Z*q.X)
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}
	pitch = math.Asin(sinPitch)
	heading = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	return heading, pitch, roll
}

// EulerDegrees is Euler with the result converted to degrees.
func (q Quaternion) EulerDegrees() EulerAngles {
	h, p, r := q.Euler()
	return EulerAngles{Heading: radToDeg(h), Pitch: radToDeg(p), Roll: radToDeg(r)}
}
