package model

// PositionStride is the number of values per sample in Track.Positions:
// time followed by three coordinates.
const PositionStride = 4

// OrientationStride is the number of values per sample in
// Track.Orientations: time followed by w, x, y, z.
const OrientationStride = 5

// Track accumulates the time-tagged samples of one tracked object in the
// flat layout the document writer emits.
type Track struct {
	ID   string
	Type string

	Positions    []float64
	Orientations []float64
}

// AppendPosition adds a [t, a, b, c] sample.
func (t *Track) AppendPosition(timestep float64, p [3]float64) {
	t.Positions = append(t.Positions, timestep, p[0], p[1], p[2])
}

// AppendOrientation adds a [t, w, x, y, z] sample.
func (t *Track) AppendOrientation(timestep float64, q [4]float64) {
	t.Orientations = append(t.Orientations, timestep, q[0], q[1], q[2], q[3])
}

// SampleCount returns the number of position samples.
func (t *Track) SampleCount() int {
	return len(t.Positions) / PositionStride
}

// Clone returns a deep copy of t.
func (t *Track) Clone() *Track {
	c := *t
	c.Positions = append([]float64(nil), t.Positions...)
	c.Orientations = append([]float64(nil), t.Orientations...)
	return &c
}
