// Package fcd reads SUMO floating-car-data exports in CSV form.
package fcd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/sumo-czml/model"
)

// Column names understood by the reader.
const (
	ColID       = "id"
	ColType     = "type"
	ColTimestep = "timestep"
	ColX        = "x"
	ColY        = "y"
	ColZ        = "z"
	ColAngle    = "angle"
	ColSlope    = "slope"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{ColID, ColType, ColTimestep, ColX, ColY}

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyInput is returned when the input has no header row.
	ErrEmptyInput = errors.New("empty input")
)

type settings struct {
	comma rune
	types TypeFilter
}

// Option configures a Reader.
type Option func(*settings)

// WithComma sets the field separator; SUMO's xml2csv tool defaults to ';'.
func WithComma(r rune) Option {
	return func(s *settings) { s.comma = r }
}

// WithTypeFilter makes Next skip rows whose class the filter rejects.
// Skipped rows are not parsed past their id and type cells.
func WithTypeFilter(f TypeFilter) Option {
	return func(s *settings) { s.types = f }
}

// Reader streams Samples from a CSV export. Columns are matched by header
// name, so their order does not matter and unknown columns are ignored.
type Reader struct {
	csv     *csv.Reader
	columns []string
	index   map[string]int
	types   TypeFilter
	skipped int
}

// NewReader reads the header row from r.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := settings{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}
	cr := csv.NewReader(r)
	cr.Comma = cfg.comma
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("fcd: read header: %w", ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("fcd: read header: %w", err)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		columns[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("fcd: %w %q", ErrMissingColumn, col)
		}
	}

	return &Reader{csv: cr, columns: columns, index: index, types: cfg.types}, nil
}

// Columns returns the header in file order.
func (r *Reader) Columns() []string {
	return append([]string(nil), r.columns...)
}

// HasColumn reports whether the header contains name.
func (r *Reader) HasColumn(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Skipped returns how many rows the type filter has dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Next returns the next sample, or io.EOF when the input is exhausted.
// An empty cell in an optional column is treated as if the column were
// absent for that row.
func (r *Reader) Next() (model.Sample, error) {
	var rec []string
	var err error
	for {
		rec, err = r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return model.Sample{}, io.EOF
			}
			return model.Sample{}, fmt.Errorf("fcd: %w", err)
		}
		if r.types.Allow(rec[r.index[ColType]]) {
			break
		}
		r.skipped++
	}

	s := model.Sample{
		ID:   rec[r.index[ColID]],
		Type: rec[r.index[ColType]],
	}

	if s.Timestep, err = r.float(rec, ColTimestep); err != nil {
		return model.Sample{}, err
	}
	if s.X, err = r.float(rec, ColX); err != nil {
		return model.Sample{}, err
	}
	if s.Y, err = r.float(rec, ColY); err != nil {
		return model.Sample{}, err
	}
	if s.Z, s.HasZ, err = r.optionalFloat(rec, ColZ); err != nil {
		return model.Sample{}, err
	}
	if s.Angle, s.HasAngle, err = r.optionalFloat(rec, ColAngle); err != nil {
		return model.Sample{}, err
	}
	if s.Slope, s.HasSlope, err = r.optionalFloat(rec, ColSlope); err != nil {
		return model.Sample{}, err
	}
	return s, nil
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]model.Sample, error) {
	var out []model.Sample
	for {
		s, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

func (r *Reader) float(rec []string, col string) (float64, error) {
	i := r.index[col]
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		line, _ := r.csv.FieldPos(i)
		return 0, fmt.Errorf("fcd: line %d column %q: %w", line, col, err)
	}
	return v, nil
}

func (r *Reader) optionalFloat(rec []string, col string) (float64, bool, error) {
	i, ok := r.index[col]
	if !ok || strings.TrimSpace(rec[i]) == "" {
		return 0, false, nil
	}
	v, err := r.float(rec, col)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// TypeFilter is an allow-list of vehicle classes. An empty filter allows
// every class.
type TypeFilter map[string]struct{}

// NewTypeFilter builds a filter from the given classes.
func NewTypeFilter(types ...string) TypeFilter {
	f := make(TypeFilter, len(types))
	for _, t := range types {
		f[t] = struct{}{}
	}
	return f
}

// Allow reports whether vehicleType passes the filter.
func (f TypeFilter) Allow(vehicleType string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[vehicleType]
	return ok
}
