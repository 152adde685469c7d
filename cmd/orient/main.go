// Command orient prints the Earth-fixed orientation quaternion of an object
// at a geodetic position with a given local attitude.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/sumo-czml/core"
	"github.com/signalsfoundry/sumo-czml/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("orient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lat := fs.Float64("lat", 0, "geodetic latitude, degrees")
	lon := fs.Float64("lon", 0, "longitude, degrees")
	heading := fs.Float64("heading", 0, "heading relative to the local level frame, degrees")
	pitch := fs.Float64("pitch", 0, "pitch, degrees")
	roll := fs.Float64("roll", 0, "roll, degrees")
	euler := fs.Bool("euler", false, "also print the result as heading, pitch, roll")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	q := core.Solve(*lat, *lon, *heading, *pitch, *roll)
	if !q.IsFinite() {
		log := logging.NewFromEnv(stderr)
		log.Error(context.Background(), "inputs must be finite",
			logging.Float64("lat", *lat), logging.Float64("lon", *lon),
			logging.Float64("heading", *heading), logging.Float64("pitch", *pitch),
			logging.Float64("roll", *roll))
		return 1
	}

	fmt.Fprintf(stdout, "%.15f %.15f %.15f %.15f\n", q.W, q.X, q.Y, q.Z)
	if *euler {
		a := q.EulerDegrees()
		fmt.Fprintf(stdout, "heading=%.6f pitch=%.6f roll=%.6f\n", a.Heading, a.Pitch, a.Roll)
	}
	return 0
}
