// Command fcd2czml converts a SUMO floating-car-data CSV export into a CZML
// document of points or oriented 3D models.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/sumo-czml/internal/config"
	"github.com/signalsfoundry/sumo-czml/internal/convert"
	"github.com/signalsfoundry/sumo-czml/internal/logging"
	"github.com/signalsfoundry/sumo-czml/internal/observability"
)

const envPrefix = "FCD2CZML"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	input         string
	output        string
	configPath    string
	mode          string
	name          string
	frame         string
	start         string
	currentOffset time.Duration
	workers       int
	metricsAddr   string
	metricsFile   string
}

func parseFlags(args []string, stderr io.Writer) (flags, map[string]bool, error) {
	var f flags
	fs := flag.NewFlagSet("fcd2czml", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.input, "input", "-", "FCD CSV file to read; - reads stdin")
	fs.StringVar(&f.output, "output", "-", "CZML file to write; - writes stdout")
	fs.StringVar(&f.configPath, "config", "", "YAML conversion profile")
	fs.StringVar(&f.mode, "mode", config.ModePoints, "document variant: points or models")
	fs.StringVar(&f.name, "name", "", "document name")
	fs.StringVar(&f.frame, "frame", "cartographic", "position frame: cartographic or cartesian")
	fs.StringVar(&f.start, "start", config.DefaultStart.Format(time.RFC3339), "document start time (RFC3339)")
	fs.DurationVar(&f.currentOffset, "current-offset", config.DefaultCurrentOffset, "clock current time relative to start")
	fs.IntVar(&f.workers, "workers", 0, "orientation solver goroutines; 0 uses every CPU")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics while converting")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after converting")

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return flags{}, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// buildConfig layers explicitly set flags over the profile.
func buildConfig(f flags, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if set["mode"] {
		cfg.Document.Mode = f.mode
	}
	if set["name"] {
		cfg.Document.Name = f.name
	}
	if set["frame"] {
		cfg.Document.Frame = f.frame
	}
	if set["start"] {
		t, err := time.Parse(time.RFC3339, f.start)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: -start: %v", config.ErrInvalid, err)
		}
		cfg.Document.Start = t
	}
	if set["current-offset"] {
		cfg.Document.CurrentOffset = f.currentOffset
	}
	if set["workers"] {
		cfg.Workers = f.workers
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, log := logging.WithRunLogger(ctx, logging.NewFromEnv(stderr))

	if err := convertFile(ctx, f, set, stdin, stdout, log); err != nil {
		log.Error(ctx, "conversion failed", logging.Err(err))
		return 1
	}
	return 0
}

func convertFile(ctx context.Context, f flags, set map[string]bool, stdin io.Reader, stdout io.Writer, log logging.Logger) error {
	cfg, err := buildConfig(f, set)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewConversionCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	if f.metricsAddr != "" {
		srv := serveMetrics(f.metricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts, err := convert.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Logger = log
	opts.Metrics = collector
	conv, err := convert.New(opts)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(f.input, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	log.Info(ctx, "converting",
		logging.String("input", f.input),
		logging.String("output", f.output),
		logging.String("mode", cfg.Document.Mode),
		logging.String("frame", cfg.Document.Frame),
		logging.Int("workers", cfg.Workers),
	)

	if f.output == "-" || f.output == "" {
		if _, err := conv.Convert(ctx, in, stdout); err != nil {
			return err
		}
	} else if err := writeFileAtomic(f.output, func(w io.Writer) error {
		_, err := conv.Convert(ctx, in, w)
		return err
	}); err != nil {
		return err
	}

	if f.metricsFile != "" {
		if err := collector.WriteTextfile(f.metricsFile); err != nil {
			return err
		}
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return stdin, func() {}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return fh, func() { _ = fh.Close() }, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place once fn succeeds.
func writeFileAtomic(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.ConversionCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
