// Package czml builds and encodes the time-tagged scene documents consumed
// by Cesium: one document packet carrying the clock, followed by one packet
// per tracked object.
package czml

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/sumo-czml/core"
	"github.com/signalsfoundry/sumo-czml/model"
	"github.com/signalsfoundry/sumo-czml/timectrl"
)

const (
	// DocumentID is the id of the header packet.
	DocumentID = "document"
	// Version is the CZML version written to the header packet.
	Version = "1.0"
	// DefaultName names documents when no name is configured.
	DefaultName = "SUMOTrafficSimulationOutput"
	// ObjectDescription is the description attached to every object packet.
	ObjectDescription = "1"
)

// Packet is a single CZML packet. Fields are declared in the order they
// appear in the encoded document.
type Packet struct {
	ID          string       `json:"id"`
	Version     string       `json:"version,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Clock       *Clock       `json:"clock,omitempty"`
	Point       *Point       `json:"point,omitempty"`
	Model       *Model       `json:"model,omitempty"`
	Position    *Position    `json:"position,omitempty"`
	Orientation *Orientation `json:"orientation,omitempty"`
}

// Clock is the document playback clock.
type Clock struct {
	Interval    string  `json:"interval"`
	CurrentTime string  `json:"currentTime"`
	Multiplier  float64 `json:"multiplier"`
}

// Color wraps an rgba array.
type Color struct {
	RGBA []int `json:"rgba"`
}

// Point renders an object as a colored dot.
type Point struct {
	Color        Color   `json:"color"`
	PixelSize    float64 `json:"pixelSize"`
	OutlineWidth float64 `json:"outlineWidth"`
}

// Model renders an object with a glTF asset.
type Model struct {
	GLTF string `json:"gltf"`
}

// Position holds sampled positions as flat [t, a, b, c, ...] arrays in one
// of two frames.
type Position struct {
	Epoch               string    `json:"epoch"`
	CartographicDegrees []float64 `json:"cartographicDegrees,omitempty"`
	Cartesian           []float64 `json:"cartesian,omitempty"`
}

// Orientation holds sampled quaternions as a flat [t, w, x, y, z, ...] array.
type Orientation struct {
	Epoch          string    `json:"epoch"`
	UnitQuaternion []float64 `json:"unitQuaternion"`
}

// PointStyle sizes point packets.
type PointStyle struct {
	PixelSize    float64
	OutlineWidth float64
}

// DefaultPointStyle is the style of the point document.
var DefaultPointStyle = PointStyle{PixelSize: 10, OutlineWidth: 2}

// Document is an ordered list of packets, header first.
type Document []Packet

// FormatTime renders t in UTC as YYYY-MM-DDTHH:MM:SS[.ffffff]Z. Fractional
// seconds are written only when non-zero, at microsecond resolution.
func FormatTime(t time.Time) string {
	t = t.UTC()
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s + "Z"
}

// NewDocumentPacket builds the header packet from the clock.
func NewDocumentPacket(name string, clock *timectrl.DocumentClock) Packet {
	if name == "" {
		name = DefaultName
	}
	start, end := clock.Interval()
	return Packet{
		ID:      DocumentID,
		Version: Version,
		Name:    name,
		Clock: &Clock{
			Interval:    FormatTime(start) + "/" + FormatTime(end),
			CurrentTime: FormatTime(clock.CurrentTime()),
			Multiplier:  clock.Multiplier,
		},
	}
}

// NewPointPacket builds the packet of a track drawn as a point.
func NewPointPacket(t *model.Track, frame core.Frame, epoch time.Time, color model.Color, style PointStyle) Packet {
	p := objectPacket(t, frame, epoch)
	p.Point = &Point{
		Color:        Color{RGBA: color.RGBA()},
		PixelSize:    style.PixelSize,
		OutlineWidth: style.OutlineWidth,
	}
	return p
}

// NewModelPacket builds the packet of a track drawn with a glTF model. The
// orientation property is included when the track carries quaternions.
func NewModelPacket(t *model.Track, frame core.Frame, epoch time.Time, gltf string) Packet {
	p := objectPacket(t, frame, epoch)
	p.Model = &Model{GLTF: gltf}
	if len(t.Orientations) > 0 {
		p.Orientation = &Orientation{
			Epoch:          FormatTime(epoch),
			UnitQuaternion: t.Orientations,
		}
	}
	return p
}

func objectPacket(t *model.Track, frame core.Frame, epoch time.Time) Packet {
	pos := &Position{Epoch: FormatTime(epoch)}
	if frame == core.FrameCartesian {
		pos.Cartesian = t.Positions
	} else {
		pos.CartographicDegrees = t.Positions
	}
	return Packet{
		ID:          t.ID,
		Name:        t.ID,
		Description: ObjectDescription,
		Position:    pos,
	}
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("czml: encode: %w", err)
	}
	return nil
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("czml: decode: %w", err)
	}
	return doc, nil
}
