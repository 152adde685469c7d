package model

// Sample is one floating-car-data row: the state of a tracked object at a
// single simulation timestep.
type Sample struct {
	ID       string
	Type     string // SUMO vehicle class, e.g. "passenger", "pedestrian"
	Timestep float64

	X float64 // longitude, degrees
	Y float64 // latitude, degrees
	Z float64 // elevation, metres; valid when HasZ

	Angle float64 // course, degrees; valid when HasAngle
	Slope float64 // degrees; valid when HasSlope

	HasZ     bool
	HasAngle bool
	HasSlope bool
}

// Elevation returns Z, or 0 when the row had no elevation column.
func (s Sample) Elevation() float64 {
	if !s.HasZ {
		return 0
	}
	return s.Z
}
