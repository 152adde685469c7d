package core

import (
	"fmt"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/sumo-czml/model"
)

// Frame names the coordinate system a PositionModel emits.
type Frame string

const (
	// FrameCartographic emits longitude, latitude (degrees) and height (metres).
	FrameCartographic Frame = "cartographic"
	// FrameCartesian emits Earth-fixed X, Y, Z in metres.
	FrameCartesian Frame = "cartesian"
)

// PositionModel turns an FCD sample into a position triple.
type PositionModel interface {
	Frame() Frame
	Position(s model.Sample) [3]float64
}

// CartographicModel passes the sample through as lon, lat, height.
// Samples without an elevation column sit at height 0.
type CartographicModel struct{}

// Frame implements PositionModel.
func (CartographicModel) Frame() Frame { return FrameCartographic }

// Position implements PositionModel.
func (CartographicModel) Position(s model.Sample) [3]float64 {
	return [3]float64{s.X, s.Y, s.Elevation()}
}

// CartesianModel converts samples to Earth-fixed cartesian metres using
// go-satellite's Earth model. go-satellite only exposes the geodetic
// conversion in the inertial frame, so the position is rotated back by the
// same sidereal angle; the result does not depend on the reference epoch.
type CartesianModel struct {
	jday float64
	gmst float64
}

// NewCartesianModel constructs a CartesianModel.
func NewCartesianModel() *CartesianModel {
	jd := satellite.JDay(2000, 1, 1, 12, 0, 0)
	return &CartesianModel{jday: jd, gmst: satellite.ThetaG_JD(jd)}
}

// Frame implements PositionModel.
func (m *CartesianModel) Frame() Frame { return FrameCartesian }

// Position implements PositionModel.
func (m *CartesianModel) Position(s model.Sample) [3]float64 {
	v := m.ECEF(GeoPoint{Lat: s.Y, Lon: s.X}, s.Elevation())
	return [3]float64{v.X, v.Y, v.Z}
}

// ECEF returns the Earth-fixed position of p at the given height (metres).
func (m *CartesianModel) ECEF(p GeoPoint, heightM float64) Vec3 {
	ll := satellite.LatLong{Latitude: degToRad(p.Lat), Longitude: degToRad(p.Lon)}

	// go-satellite works in kilometres.
	const kmToM = 1000.0
	eci := satellite.LLAToECI(ll, heightM/kmToM, m.jday)
	ecef := satellite.ECIToECEF(eci, m.gmst)

	return Vec3{X: ecef.X * kmToM, Y: ecef.Y * kmToM, Z: ecef.Z * kmToM}
}

// NewPositionModel returns the model for the named frame. An empty name
// selects the cartographic frame.
func NewPositionModel(frame string) (PositionModel, error) {
	switch Frame(strings.ToLower(strings.TrimSpace(frame))) {
	case FrameCartographic, "":
		return CartographicModel{}, nil
	case FrameCartesian:
		return NewCartesianModel(), nil
	default:
		return nil, fmt.Errorf("unknown position frame %q", frame)
	}
}
