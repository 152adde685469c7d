// Package convert turns a floating-car-data export into a CZML document.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/sumo-czml/core"
	"github.com/signalsfoundry/sumo-czml/czml"
	"github.com/signalsfoundry/sumo-czml/fcd"
	"github.com/signalsfoundry/sumo-czml/internal/config"
	"github.com/signalsfoundry/sumo-czml/internal/logging"
	"github.com/signalsfoundry/sumo-czml/internal/observability"
	"github.com/signalsfoundry/sumo-czml/kb"
	"github.com/signalsfoundry/sumo-czml/model"
	"github.com/signalsfoundry/sumo-czml/timectrl"
)

var (
	// ErrUnknownVariant is returned for a variant other than points or models.
	ErrUnknownVariant = errors.New("unknown document variant")
	// ErrMissingAngle is returned when the models variant meets input without
	// a course angle.
	ErrMissingAngle = errors.New("angle is required for 3D models")
)

// Stage names used for spans and duration metrics.
const (
	StageRead  = "read"
	StageSolve = "solve"
	StageWrite = "write"
)

// Options configures a Converter. New replaces a zero Start, Multiplier,
// PointStyle or Delimiter with the defaults of config.Default.
type Options struct {
	Variant       string // config.ModePoints or config.ModeModels
	Types         fcd.TypeFilter
	Name          string
	Start         time.Time
	CurrentOffset time.Duration
	Multiplier    float64
	Positions     core.PositionModel
	Appearance    model.Appearance
	PointStyle    czml.PointStyle
	Delimiter     rune
	Workers       int

	Logger  logging.Logger
	Metrics *observability.ConversionCollector
}

// OptionsFromConfig maps a validated profile onto converter options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	positions, err := core.NewPositionModel(cfg.Document.Frame)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Variant:       cfg.Document.Mode,
		Types:         fcd.NewTypeFilter(cfg.Input.Types...),
		Name:          cfg.Document.Name,
		Start:         cfg.Document.Start,
		CurrentOffset: cfg.Document.CurrentOffset,
		Multiplier:    cfg.Document.Multiplier,
		Positions:     positions,
		Appearance:    cfg.AppearanceTable(),
		PointStyle: czml.PointStyle{
			PixelSize:    cfg.Appearance.PointPixelSize,
			OutlineWidth: cfg.Appearance.PointOutlineWidth,
		},
		Delimiter: cfg.Delimiter(),
		Workers:   cfg.Workers,
	}, nil
}

// Summary describes a finished conversion.
type Summary struct {
	Rows        int // rows converted
	Skipped     int // rows dropped by the type filter
	Objects     int // object packets written
	MaxTimestep float64
}

// Converter runs conversions. It holds no per-run state and may be reused.
type Converter struct {
	opts Options
	log  logging.Logger
}

// New validates opts and fills in defaults.
func New(opts Options) (*Converter, error) {
	switch opts.Variant {
	case "":
		opts.Variant = config.ModePoints
	case config.ModePoints, config.ModeModels:
	default:
		return nil, fmt.Errorf("convert: %w %q", ErrUnknownVariant, opts.Variant)
	}

	def := config.Default()
	if opts.Variant == config.ModeModels && opts.Types == nil {
		opts.Types = fcd.NewTypeFilter(model.DefaultModelTypes...)
	}
	if opts.Start.IsZero() {
		opts.Start = def.Document.Start
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = def.Document.Multiplier
	}
	if opts.Positions == nil {
		opts.Positions = core.CartographicModel{}
	}
	if opts.PointStyle == (czml.PointStyle{}) {
		opts.PointStyle = czml.DefaultPointStyle
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Converter{opts: opts, log: log.With(logging.String("variant", opts.Variant))}, nil
}

// Convert reads FCD rows from r and writes the document to w.
func (c *Converter) Convert(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	ctx, span := observability.Tracer().Start(ctx, "convert",
		trace.WithAttributes(attribute.String("variant", c.opts.Variant)))
	defer span.End()

	sum, err := c.convert(ctx, r, w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return sum, err
	}
	span.SetAttributes(
		attribute.Int("fcd.rows", sum.Rows),
		attribute.Int("fcd.skipped", sum.Skipped),
		attribute.Int("czml.objects", sum.Objects),
	)
	return sum, nil
}

func (c *Converter) convert(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	store := kb.NewTrackStore()
	unsubscribe := store.Subscribe(func(e kb.Event) {
		if e.Type == kb.EventTrackAdded {
			c.log.Debug(ctx, "new track", logging.String("id", e.TrackID))
		}
	})
	defer unsubscribe()

	clock := timectrl.NewDocumentClock(c.opts.Start, c.opts.CurrentOffset)
	clock.Multiplier = c.opts.Multiplier

	var (
		sum  Summary
		jobs []solveJob
	)
	err := c.stage(ctx, StageRead, func(ctx context.Context) error {
		var err error
		jobs, err = c.read(ctx, r, store, clock, &sum)
		return err
	})
	if err != nil {
		return sum, err
	}
	sum.MaxTimestep = clock.MaxTimestep()

	if c.opts.Variant == config.ModeModels {
		err = c.stage(ctx, StageSolve, func(ctx context.Context) error {
			return c.solve(ctx, store, jobs)
		})
		if err != nil {
			return sum, err
		}
	}

	err = c.stage(ctx, StageWrite, func(context.Context) error {
		var err error
		sum.Objects, err = c.write(w, store, clock)
		return err
	})
	if err != nil {
		return sum, err
	}

	c.opts.Metrics.SetObjects(sum.Objects)
	c.log.Info(ctx, "conversion finished",
		logging.Int("rows", sum.Rows),
		logging.Int("skipped", sum.Skipped),
		logging.Int("objects", sum.Objects),
		logging.Float64("max_timestep", sum.MaxTimestep),
	)
	return sum, nil
}

// stage runs fn inside a span and records its duration.
func (c *Converter) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer().Start(ctx, "convert."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	c.opts.Metrics.ObserveStage(name, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	c.log.Debug(ctx, "stage done", logging.String("stage", name), logging.Any("elapsed", elapsed))
	return nil
}

// solveJob is one row waiting for its quaternion.
type solveJob struct {
	trackID string
	sample  model.Sample
}

func (c *Converter) read(ctx context.Context, r io.Reader, store *kb.TrackStore, clock *timectrl.DocumentClock, sum *Summary) ([]solveJob, error) {
	models := c.opts.Variant == config.ModeModels
	readOpts := []fcd.Option{fcd.WithComma(c.opts.Delimiter)}
	if models {
		readOpts = append(readOpts, fcd.WithTypeFilter(c.opts.Types))
	}
	rd, err := fcd.NewReader(r, readOpts...)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	c.log.Debug(ctx, "fcd header", logging.Any("columns", rd.Columns()))
	if models && !rd.HasColumn(fcd.ColAngle) {
		return nil, fmt.Errorf("convert: %w: no %q column", ErrMissingAngle, fcd.ColAngle)
	}

	var jobs []solveJob
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}

		if models && !s.HasAngle {
			return nil, fmt.Errorf("convert: object %q at timestep %g: %w", s.ID, s.Timestep, ErrMissingAngle)
		}

		clock.Observe(s.Timestep)
		store.EnsureTrack(s.ID, s.Type)
		if err := store.AppendPosition(s.ID, s.Timestep, c.opts.Positions.Position(s)); err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
		if models {
			jobs = append(jobs, solveJob{trackID: s.ID, sample: s})
		}
		sum.Rows++
	}
	sum.Skipped = rd.Skipped()

	c.opts.Metrics.AddRows(c.opts.Variant, observability.OutcomeConverted, sum.Rows)
	c.opts.Metrics.AddRows(c.opts.Variant, observability.OutcomeSkipped, sum.Skipped)
	return jobs, nil
}

// solve computes every job's quaternion on a bounded pool and appends the
// results to the store in row order.
func (c *Converter) solve(ctx context.Context, store *kb.TrackStore, jobs []solveJob) error {
	results := make([]core.Quaternion, len(jobs))
	idx := make(chan int)

	workers := min(c.opts.Workers, len(jobs))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = core.SampleOrientation(jobs[i].sample)
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, job := range jobs {
		q := results[i]
		if err := store.AppendOrientation(job.trackID, job.sample.Timestep, q.Array()); err != nil {
			return fmt.Errorf("convert: %w", err)
		}
	}
	c.opts.Metrics.AddSolves(len(jobs))
	return nil
}

func (c *Converter) write(w io.Writer, store *kb.TrackStore, clock *timectrl.DocumentClock) (int, error) {
	tracks := store.ListTracks()
	doc := make(czml.Document, 0, len(tracks)+1)
	doc = append(doc, czml.NewDocumentPacket(c.opts.Name, clock))

	frame := c.opts.Positions.Frame()
	for _, t := range tracks {
		switch c.opts.Variant {
		case config.ModeModels:
			doc = append(doc, czml.NewModelPacket(t, frame, c.opts.Start, c.opts.Appearance.ModelFor(t.Type)))
		default:
			doc = append(doc, czml.NewPointPacket(t, frame, c.opts.Start, c.opts.Appearance.ColorFor(t.Type), c.opts.PointStyle))
		}
	}

	if err := czml.Encode(w, doc); err != nil {
		return 0, fmt.Errorf("convert: %w", err)
	}
	return len(tracks), nil
}
