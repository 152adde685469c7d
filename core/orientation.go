package core

import (
	"math"

	"github.com/signalsfoundry/sumo-czml/model"
)

// GimbalLockTolerance is the |cos(pitch)| below which the matrix
// decomposition treats pitch as ±90° and collapses heading into roll.
const GimbalLockTolerance = 1e-6

// EulerAngles is an attitude in degrees. Heading rotates about the local up
// axis, pitch about the lateral axis and roll about the forward axis.
// Values are used as given; nothing is wrapped into [-180, 180].
type EulerAngles struct {
	Heading float64
	Pitch   float64
	Roll    float64
}

// EulerSolutions holds both candidate decompositions of a rotation matrix,
// in radians.
type EulerSolutions struct {
	Heading1, Pitch1, Roll1 float64
	Heading2, Pitch2, Roll2 float64
	GimbalLock              bool
}

// Selected returns the triple used to build the local-level quaternion:
// heading and pitch from the first solution, roll from the second.
// Output compatibility with existing documents depends on this exact mix.
func (s EulerSolutions) Selected() (heading, pitch, roll float64) {
	return s.Heading1, s.Pitch1, s.Roll2
}

// EulerFromMatrix decomposes r into its two candidate Euler solutions.
func EulerFromMatrix(r RotationMatrix) EulerSolutions {
	r11, r12, r13 := r[0][0], r[0][1], r[0][2]
	r21, r22, r23 := r[1][0], r[1][1], r[1][2]
	r33 := r[2][2]

	var s EulerSolutions
	s.Pitch1 = -math.Asin(r13)
	s.Pitch2 = math.Pi - s.Pitch1

	if math.Abs(math.Cos(s.Pitch1)) < GimbalLockTolerance {
		s.GimbalLock = true
		s.Roll1 = math.Atan2(-r21, r22)
		s.Roll2 = s.Roll1
		return s
	}

	c1 := math.Cos(s.Pitch1)
	s.Roll1 = math.Atan2(r12/c1, r11/c1)
	s.Heading1 = math.Atan2(r23/c1, r33/c1)

	c2 := math.Cos(s.Pitch2)
	s.Roll2 = math.Atan2(r12/c2, r11/c2)
	s.Heading2 = math.Atan2(r23/c2, r33/c2)
	return s
}

// LocalLevelQuaternion returns the orientation of the local level frame at
// lat, lon (radians) as a quaternion.
func LocalLevelQuaternion(lat, lon float64) Quaternion {
	h, p, r := EulerFromMatrix(LocalLevelMatrix(lat, lon)).Selected()
	return QuaternionFromEuler(h, p, r)
}

// Solve returns the Earth-fixed orientation of an object at lat, lon whose
// attitude relative to the local level frame is heading, pitch, roll. All
// inputs are degrees and must be finite.
//
// The result is q_hpr·q_local and is not renormalised; it is a unit
// quaternion whenever the inputs are finite.
func Solve(lat, lon, heading, pitch, roll float64) Quaternion {
	qLocal := LocalLevelQuaternion(degToRad(lat), degToRad(lon))
	qHPR := QuaternionFromEuler(degToRad(heading), degToRad(pitch), degToRad(roll))
	return qHPR.Mul(qLocal)
}

// SolveAt is Solve over the structured inputs.
func SolveAt(p GeoPoint, a EulerAngles) Quaternion {
	return Solve(p.Lat, p.Lon, a.Heading, a.Pitch, a.Roll)
}

// CourseOffsetDeg aligns SUMO's course angle with the forward axis of the
// glTF assets the documents reference.
const CourseOffsetDeg = 180.0

// CourseAttitude maps an FCD sample onto solver attitude. The course angle
// (plus CourseOffsetDeg) drives the roll channel and the negated slope drives
// pitch; a sample without a slope column is level.
func CourseAttitude(s model.Sample) EulerAngles {
	a := EulerAngles{Roll: s.Angle + CourseOffsetDeg}
	if s.HasSlope {
		a.Pitch = -s.Slope
	}
	return a
}

// SampleOrientation solves the orientation of a single FCD sample.
func SampleOrientation(s model.Sample) Quaternion {
	return SolveAt(GeoPoint{Lat: s.Y, Lon: s.X}, CourseAttitude(s))
}
