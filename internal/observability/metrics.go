package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Row outcomes recorded on fcd_rows_total.
const (
	OutcomeConverted = "converted"
	OutcomeSkipped   = "skipped"
)

// ConversionCollector bundles Prometheus metrics for a conversion run and
// exposes them over HTTP or as a node-exporter textfile.
type ConversionCollector struct {
	gatherer prometheus.Gatherer

	Rows           *prometheus.CounterVec
	Objects        prometheus.Gauge
	Solves         prometheus.Counter
	StageDurations *prometheus.HistogramVec
}

// NewConversionCollector registers conversion metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewConversionCollector(reg prometheus.Registerer) (*ConversionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	rows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fcd_rows_total",
		Help: "Floating-car-data rows read, labeled by document variant and outcome.",
	}, []string{"variant", "outcome"}), "fcd_rows_total")
	if err != nil {
		return nil, err
	}

	objects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "czml_objects",
		Help: "Object packets written to the last document.",
	}), "czml_objects")
	if err != nil {
		return nil, err
	}

	solves, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orientation_solves_total",
		Help: "Orientation quaternions computed.",
	}), "orientation_solves_total")
	if err != nil {
		return nil, err
	}

	stages, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "convert_stage_duration_seconds",
		Help:    "Wall time spent in each conversion stage.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"stage"}), "convert_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &ConversionCollector{
		gatherer:       gatherer,
		Rows:           rows,
		Objects:        objects,
		Solves:         solves,
		StageDurations: stages,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ConversionCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ConversionCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metric values to path in the text
// exposition format.
func (c *ConversionCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// AddRows counts n rows of a variant with the given outcome.
func (c *ConversionCollector) AddRows(variant, outcome string, n int) {
	if c == nil || c.Rows == nil || n <= 0 {
		return
	}
	c.Rows.WithLabelValues(variant, outcome).Add(float64(n))
}

// SetObjects updates the object gauge.
func (c *ConversionCollector) SetObjects(n int) {
	if c == nil || c.Objects == nil {
		return
	}
	c.Objects.Set(float64(n))
}

// AddSolves counts computed quaternions.
func (c *ConversionCollector) AddSolves(n int) {
	if c == nil || c.Solves == nil || n <= 0 {
		return
	}
	c.Solves.Add(float64(n))
}

// ObserveStage records how long a stage took.
func (c *ConversionCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
