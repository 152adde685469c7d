package core

import (
	"math"
	"testing"
)

// angleDiff returns a-b folded into [-π, π].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func TestQuaternionFromEuler_RoundTrip(t *testing.T) {
	cases := []EulerAngles{
		{Heading: 0, Pitch: 0, Roll: 0},
		{Heading: 90, Pitch: 0, Roll: 0},
		{Heading: 10, Pitch: 20, Roll: 30},
		{Heading: -135, Pitch: -45, Roll: 170},
		{Heading: 270, Pitch: 5, Roll: 400},
		{Heading: 359, Pitch: 89, Roll: -10},
	}
	for _, in := range cases {
		q := QuaternionFromEuler(degToRad(in.Heading), degToRad(in.Pitch), degToRad(in.Roll))
		h, p, r := q.Euler()

		if d := angleDiff(h, degToRad(in.Heading)); math.Abs(d) > 1e-6 {
			t.Errorf("%+v: heading off by %v rad", in, d)
		}
		if d := angleDiff(p, degToRad(in.Pitch)); math.Abs(d) > 1e-6 {
			t.Errorf("%+v: pitch off by %v rad", in, d)
		}
		if d := angleDiff(r, degToRad(in.Roll)); math.Abs(d) > 1e-6 {
			t.Errorf("%+v: roll off by %v rad", in, d)
		}
	}
}

func TestQuaternionFromEuler_SingleAxes(t *testing.T) {
	half := math.Sqrt2 / 2
	cases := []struct {
		name    string
		h, p, r float64
		want    Quaternion
	}{
		{"identity", 0, 0, 0, Identity()},
		{"heading", math.Pi / 2, 0, 0, Quaternion{W: half, Z: half}},
		{"pitch", 0, math.Pi / 2, 0, Quaternion{W: half, Y: half}},
		{"roll", 0, 0, math.Pi / 2, Quaternion{W: half, X: half}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertQuatNear(t, QuaternionFromEuler(tc.h, tc.p, tc.r), tc.want, 1e-12)
		})
	}
}

func TestQuaternionMul_HamiltonProduct(t *testing.T) {
	i := Quaternion{X: 1}
	j := Quaternion{Y: 1}
	k := Quaternion{Z: 1}

	if got := i.Mul(j); got != k {
		t.Fatalf("i·j = %v, want k", got)
	}
	if got := j.Mul(i); got != (Quaternion{Z: -1}) {
		t.Fatalf("j·i = %v, want -k", got)
	}
	if got := k.Mul(k); got != (Quaternion{W: -1}) {
		t.Fatalf("k·k = %v, want -1", got)
	}

	q1 := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	q2 := Quaternion{W: 5, X: 6, Y: 7, Z: 8}
	want := Quaternion{W: -60, X: 12, Y: 30, Z: 24}
	if got := q1.Mul(q2); got != want {
		t.Fatalf("q1·q2 = %v, want %v", got, want)
	}
}

func TestQuaternionConjInverse(t *testing.T) {
	q := Solve(48.1, 11.5, 185.5, 2, 0)
	assertQuatNear(t, q.Mul(q.Conj()), Identity(), 1e-12)
}

func TestEulerDegrees(t *testing.T) {
	got := QuaternionFromEuler(degToRad(30), degToRad(-10), degToRad(5)).EulerDegrees()
	if math.Abs(got.Heading-30) > 1e-9 || math.Abs(got.Pitch+10) > 1e-9 || math.Abs(got.Roll-5) > 1e-9 {
		t.Fatalf("EulerDegrees = %+v", got)
	}
}
