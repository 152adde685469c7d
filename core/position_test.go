package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/sumo-czml/model"
)

func TestCartographicModel_PassThrough(t *testing.T) {
	m := CartographicModel{}
	if m.Frame() != FrameCartographic {
		t.Fatalf("Frame() = %q", m.Frame())
	}

	got := m.Position(model.Sample{X: 5.1, Y: 52.2, Z: 3.5, HasZ: true})
	if got != [3]float64{5.1, 52.2, 3.5} {
		t.Fatalf("Position = %v", got)
	}

	// No elevation column: height defaults to 0 even when Z holds garbage.
	got = m.Position(model.Sample{X: 5.1, Y: 52.2, Z: 99})
	if got != [3]float64{5.1, 52.2, 0} {
		t.Fatalf("Position without z = %v", got)
	}
}

func TestCartesianModel_EarthFixed(t *testing.T) {
	m := NewCartesianModel()
	if m.Frame() != FrameCartesian {
		t.Fatalf("Frame() = %q", m.Frame())
	}

	cases := []GeoPoint{{0, 0}, {0, 90}, {52, 5}, {-33.9, 151.2}, {60, -150}}
	for _, p := range cases {
		v := m.ECEF(p, 0)
		r := v.Norm()
		if r < 6350e3 || r > 6380e3 {
			t.Fatalf("%+v: radius %v m outside the Earth's", p, r)
		}

		// Direction agrees with the spherical approximation to within the
		// geodetic/geocentric latitude difference (< 0.2°).
		lat, lon := degToRad(p.Lat), degToRad(p.Lon)
		want := Vec3{math.Cos(lat) * math.Cos(lon), math.Cos(lat) * math.Sin(lon), math.Sin(lat)}
		dot := (v.X*want.X + v.Y*want.Y + v.Z*want.Z) / r
		if math.Acos(math.Min(dot, 1)) > degToRad(0.2) {
			t.Fatalf("%+v: direction off by %v°", p, radToDeg(math.Acos(dot)))
		}
	}
}

func TestCartesianModel_Height(t *testing.T) {
	m := NewCartesianModel()
	p := GeoPoint{Lat: 52, Lon: 5}
	ground := m.ECEF(p, 0).Norm()
	raised := m.ECEF(p, 100).Norm()
	if d := raised - ground; math.Abs(d-100) > 1 {
		t.Fatalf("100 m of height moved the point %v m", d)
	}

	s := model.Sample{X: 5, Y: 52, Z: 100, HasZ: true}
	pos := m.Position(s)
	if got := (Vec3{pos[0], pos[1], pos[2]}).Norm(); math.Abs(got-raised) > 1e-6 {
		t.Fatalf("Position norm %v, want %v", got, raised)
	}
}

func TestNewPositionModel(t *testing.T) {
	for _, name := range []string{"", "cartographic", " Cartographic "} {
		m, err := NewPositionModel(name)
		if err != nil || m.Frame() != FrameCartographic {
			t.Fatalf("NewPositionModel(%q) = %v, %v", name, m, err)
		}
	}
	m, err := NewPositionModel("cartesian")
	if err != nil || m.Frame() != FrameCartesian {
		t.Fatalf("NewPositionModel(cartesian) = %v, %v", m, err)
	}
	if _, err := NewPositionModel("ecef"); err == nil {
		t.Fatalf("expected error for unknown frame")
	}
}
