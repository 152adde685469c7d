package core

import "math"

// GeoPoint is a geographic position in degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// RotationMatrix is a 3x3 row-major rotation matrix.
type RotationMatrix [3][3]float64

// Vec3 is an Earth-fixed cartesian vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// All angle conversion happens through these two helpers so that degrees
// never leak past the exported entry points.
func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }

func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// LocalLevelMatrix returns the orientation of the local level frame at the
// given latitude and longitude (radians) relative to the Earth-fixed frame.
// It depends on position only; object attitude is applied separately.
func LocalLevelMatrix(lat, lon float64) RotationMatrix {
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	sinLon := math.Sin(lon)
	cosLon := math.Cos(lon)

	return RotationMatrix{
		{-sinLat * cosLon, -sinLat * sinLon, cosLat},
		{-sinLon, cosLon, 0},
		{-cosLat * cosLon, -cosLat * sinLon, -sinLat},
	}
}

