package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/sumo-czml/czml"
	"github.com/signalsfoundry/sumo-czml/internal/config"
)

const fcdSample = `id,type,timestep,x,y,z,angle,slope
veh0,passenger,0,13.405,52.52,34,270,-3
bike0,bicycle,0,13.4051,52.5201,34,10,0
veh0,passenger,1,13.4049,52.52,34,270,-3
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunPointsToFile(t *testing.T) {
	in := writeTemp(t, "fcd.csv", fcdSample)
	out := filepath.Join(filepath.Dir(in), "points.czml")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-input", in, "-output", out, "-start", "2024-05-01T10:00:00Z"}, nil, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout should stay empty when writing a file")
	}

	fh, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer fh.Close()
	doc, err := czml.Decode(fh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc) != 3 || doc[1].Point == nil || doc[2].ID != "bike0" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc[0].Clock.Interval != "2024-05-01T10:00:00Z/2024-05-01T10:00:01Z" {
		t.Fatalf("interval = %s", doc[0].Clock.Interval)
	}
	if !strings.Contains(stderr.String(), "run_id=") {
		t.Fatalf("logs lack run id:\n%s", stderr.String())
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".points.czml.*"))
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestRunModelsFromEnvToStdout(t *testing.T) {
	t.Setenv("FCD2CZML_MODE", "models")
	t.Setenv("FCD2CZML_WORKERS", "2")
	metricsFile := filepath.Join(t.TempDir(), "fcd2czml.prom")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-metrics-file", metricsFile}, strings.NewReader(fcdSample), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}

	doc, err := czml.Decode(&stdout)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc) != 2 || doc[1].ID != "veh0" || doc[1].Model == nil {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if n := len(doc[1].Orientation.UnitQuaternion); n != 10 {
		t.Fatalf("unitQuaternion has %d values, want 10", n)
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	for _, want := range []string{
		`fcd_rows_total{outcome="skipped",variant="models"} 1`,
		"orientation_solves_total 2",
		"czml_objects 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("metrics file lacks %q:\n%s", want, data)
		}
	}
}

func TestRunFailures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-mode", "lines"}, strings.NewReader(fcdSample), &stdout, &stderr); code != 1 {
		t.Fatalf("invalid mode exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "conversion failed") {
		t.Fatalf("failure not logged:\n%s", stderr.String())
	}

	stderr.Reset()
	if code := run(context.Background(), []string{"-input", filepath.Join(t.TempDir(), "missing.csv")}, nil, &stdout, &stderr); code != 1 {
		t.Fatalf("missing input exit code = %d, want 1", code)
	}

	if code := run(context.Background(), []string{"-no-such-flag"}, nil, &stdout, &stderr); code != 2 {
		t.Fatalf("unknown flag exit code = %d, want 2", code)
	}
}

func TestBuildConfigFlagsOverrideProfile(t *testing.T) {
	profile := writeTemp(t, "profile.yaml", "document:\n  mode: models\n  name: FromProfile\n  frame: cartesian\nworkers: 4\n")

	f, set, err := parseFlags([]string{"-config", profile, "-name", "FromFlag", "-current-offset", "10s"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	cfg, err := buildConfig(f, set)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}

	if cfg.Document.Mode != config.ModeModels || cfg.Document.Frame != "cartesian" || cfg.Workers != 4 {
		t.Fatalf("profile values lost: %+v", cfg)
	}
	if cfg.Document.Name != "FromFlag" || cfg.Document.CurrentOffset != 10*time.Second {
		t.Fatalf("flag values not applied: %+v", cfg.Document)
	}
}

func TestBuildConfigRejectsBadStart(t *testing.T) {
	f, set, err := parseFlags([]string{"-start", "yesterday"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if _, err := buildConfig(f, set); err == nil {
		t.Fatalf("expected error for bad -start")
	}
}
