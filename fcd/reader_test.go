package fcd

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/sumo-czml/model"
)

const sample = `timestep,id,type,x,y,z,angle,slope,speed
0.00,veh0,passenger,5.0001,52.0001,1.5,90.00,0.5,13.9
0.00,ped0,pedestrian,5.0002,52.0002,,180.00,,1.2
1.00,veh0,passenger,5.0003,52.0001,1.6,91.50,-0.25,13.8
`

func TestReaderParsesRows(t *testing.T) {
	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)

	assert.True(t, r.HasColumn(ColSlope))
	assert.False(t, r.HasColumn("edge"))
	assert.Equal(t, []string{"timestep", "id", "type", "x", "y", "z", "angle", "slope", "speed"}, r.Columns())

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, model.Sample{
		ID: "veh0", Type: "passenger", Timestep: 0,
		X: 5.0001, Y: 52.0001, Z: 1.5, Angle: 90, Slope: 0.5,
		HasZ: true, HasAngle: true, HasSlope: true,
	}, rows[0])

	// Empty optional cells behave like a missing column.
	assert.False(t, rows[1].HasZ)
	assert.False(t, rows[1].HasSlope)
	assert.True(t, rows[1].HasAngle)
	assert.Equal(t, 180.0, rows[1].Angle)

	assert.Equal(t, 1.0, rows[2].Timestep)
	assert.Equal(t, -0.25, rows[2].Slope)
}

func TestReaderOptionalColumnsAbsent(t *testing.T) {
	in := "id,type,timestep,x,y\nbus1,bus,2.5,4.9,52.3\n"
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)

	s, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, model.Sample{ID: "bus1", Type: "bus", Timestep: 2.5, X: 4.9, Y: 52.3}, s)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderMissingRequiredColumn(t *testing.T) {
	_, err := NewReader(strings.NewReader("id,type,timestep,x\nveh0,passenger,0,5\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), `"y"`)
}

func TestReaderEmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestReaderBadNumberReportsLine(t *testing.T) {
	in := "id,type,timestep,x,y\nveh0,passenger,0,5,52\nveh0,passenger,1,east,52\n"
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), `"x"`)

	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestReaderSemicolonAndBOM(t *testing.T) {
	in := "\ufeffid;type;timestep;x;y;angle\nveh0;passenger;0;5;52;270\n"
	r, err := NewReader(strings.NewReader(in), WithComma(';'))
	require.NoError(t, err)

	s, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "veh0", s.ID)
	assert.Equal(t, 270.0, s.Angle)
}

func TestTypeFilter(t *testing.T) {
	all := NewTypeFilter()
	assert.True(t, all.Allow("tram"))

	f := NewTypeFilter(model.DefaultModelTypes...)
	assert.True(t, f.Allow("passenger"))
	assert.True(t, f.Allow("pedestrian"))
	assert.False(t, f.Allow("truck"))
	assert.False(t, f.Allow(""))
}

func TestReaderTypeFilterSkipsBeforeParsing(t *testing.T) {
	in := "id,type,timestep,x,y,angle\nb,bus,0,,2,\nv,passenger,0,1,2,0\nt,truck,oops,1,2,0\n"
	r, err := NewReader(strings.NewReader(in), WithTypeFilter(NewTypeFilter(model.DefaultModelTypes...)))
	require.NoError(t, err)

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "v", rows[0].ID)
	assert.Equal(t, 2, r.Skipped())
}
