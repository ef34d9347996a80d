// Command planroute analyses a single route from the command line, either
// online against the elevation API or offline from a saved profile.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/elevation"
	"github.com/signalsfoundry/route-link-planner/internal/nbi"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
	"github.com/signalsfoundry/route-link-planner/kb"
	"github.com/signalsfoundry/route-link-planner/model"
)

type options struct {
	start, end   string
	vehicleID    string
	fleetPath    string
	rangeKm      float64
	frequencyGHz float64
	profilePath  string
	policy       string
	elevationURL string
	timeout      time.Duration
	jsonOut      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.start, "start", "", "start point as lat,lng")
	flag.StringVar(&opts.end, "end", "", "candidate end point as lat,lng")
	flag.StringVar(&opts.vehicleID, "vehicle", "", "vehicle id from the fleet file")
	flag.StringVar(&opts.fleetPath, "fleet", "configs/fleet.yaml", "fleet YAML file; the built-in fleet is used when missing")
	flag.Float64Var(&opts.rangeKm, "range", 0, "inline vehicle range in km (0 = unlimited)")
	flag.Float64Var(&opts.frequencyGHz, "freq", 0, "inline vehicle frequency in GHz (0 = default)")
	flag.StringVar(&opts.profilePath, "profile", "", "analyse a saved JSON profile instead of sampling a route")
	flag.StringVar(&opts.policy, "policy", core.PolicyFresnel, "line-of-sight policy: fresnel or slope")
	flag.StringVar(&opts.elevationURL, "elevation-url", elevation.DefaultBaseURL, "elevation API base URL")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	flag.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "planroute: %v\n", err)
		var rv *core.RangeViolationError
		if errors.As(err, &rv) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	policy, err := core.LineOfSightPolicyByName(opts.policy)
	if err != nil {
		return err
	}
	fleet := kb.DefaultFleet()
	if opts.fleetPath != "" {
		if loaded, err := kb.LoadFleetFile(opts.fleetPath); err == nil {
			fleet = loaded
		}
	}

	var source core.ElevationSource
	if opts.profilePath == "" {
		client, err := elevation.NewClient(opts.elevationURL)
		if err != nil {
			return err
		}
		source = client
	}
	svc := planning.NewService(source, fleet, []core.PlannerOption{core.WithLineOfSightPolicy(policy)})

	if opts.profilePath != "" {
		return analyzeFile(ctx, svc, opts, out)
	}

	start, err := parseCoordinate(opts.start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	end, err := parseCoordinate(opts.end)
	if err != nil {
		return fmt.Errorf("-end: %w", err)
	}
	plan, err := svc.PlanRoute(ctx, planning.RouteRequest{Start: start, End: end, Vehicle: vehicleRef(opts)})
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return writeJSON(out, nbi.PlanToWire(plan))
	}
	fmt.Fprintf(out, "Vehicle %q (%s policy), %s -> %s\n", displayName(plan.Vehicle), plan.Policy, start, end)
	printAnalysis(out, plan.Analysis)
	if plan.EstimatedFlightTime > 0 {
		fmt.Fprintf(out, "Estimated flight time: %s\n", plan.EstimatedFlightTime.Round(time.Second))
	}
	return nil
}

func analyzeFile(ctx context.Context, svc *planning.Service, opts options, out io.Writer) error {
	f, err := os.Open(opts.profilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := core.LoadElevationProfile(f)
	if err != nil {
		return err
	}
	ref := vehicleRef(opts)
	if ref.ID == "" && opts.rangeKm == 0 && opts.frequencyGHz == 0 {
		ref.Inline = &doc.Vehicle
	}
	res, err := svc.AnalyzeProfile(ctx, doc.Samples, ref)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		return writeJSON(out, types.AnalysisToWire(res))
	}
	fmt.Fprintf(out, "Profile %s: %d samples\n", opts.profilePath, len(doc.Samples))
	printAnalysis(out, res)
	return nil
}

func vehicleRef(opts options) planning.VehicleRef {
	if opts.vehicleID != "" {
		return planning.VehicleRef{ID: opts.vehicleID}
	}
	v := &model.VehicleProfile{Name: "inline", FrequencyGHz: opts.frequencyGHz}
	if opts.rangeKm > 0 {
		v.MaxRangeKm = model.Float64Ptr(opts.rangeKm)
	}
	return planning.VehicleRef{Inline: v}
}

// parseCoordinate accepts "lat,lng".
func parseCoordinate(s string) (model.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinate{}, fmt.Errorf("%w: want lat,lng, got %q", core.ErrInvalidCoordinate, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("%w: latitude %q", core.ErrInvalidCoordinate, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("%w: longitude %q", core.ErrInvalidCoordinate, parts[1])
	}
	c := model.Coordinate{Lat: lat, Lng: lng}
	return c, core.ValidateCoordinate(c)
}

func printAnalysis(out io.Writer, res *core.RouteAnalysisResult) {
	for i, s := range res.Segments {
		fmt.Fprintf(out, "  #%-3d %7.2f km  los=%-5v quality=%4.2f  %s\n",
			i+1, s.DistanceFromStartKm, s.HasLineOfSight, s.SignalQuality, s.Status)
	}
	fmt.Fprintf(out, "Total %.2f km, %d critical segment(s)\n", res.TotalDistanceKm, res.CriticalCount())
}

func displayName(v model.VehicleProfile) string {
	if v.Name != "" {
		return v.Name
	}
	return "unnamed"
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
