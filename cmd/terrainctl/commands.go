package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/terrain"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

type pathFlags struct {
	from, to   string
	fromHeight float64
	toHeight   float64
	stepKm     float64
	marginKm   float64
}

func newRootCmd(out io.Writer) *cobra.Command {
	var demPath string

	root := &cobra.Command{
		Use:           "terrainctl",
		Short:         "Inspect terrain between two points on a local elevation tile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&demPath, "dem", "d", "./data/dem.hgt", "SRTM .hgt tile")

	bearingCmd := &cobra.Command{
		Use:   "bearing LAT1 LON1 LAT2 LON2",
		Short: "Print the initial great-circle bearing from point 1 to point 2",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				v[i] = f
			}
			fmt.Fprintf(out, "%.6f rad\t%.3f deg\n",
				geospatial.Bearing(v[0], v[1], v[2], v[3]),
				geospatial.BearingDegrees(v[0], v[1], v[2], v[3]))
			return nil
		},
	}

	var pf pathFlags
	addPathFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&pf.from, "from", "", "origin as lat,lon")
		cmd.Flags().StringVar(&pf.to, "to", "", "destination as lat,lon")
		cmd.Flags().Float64Var(&pf.fromHeight, "from-height", 0, "origin antenna height above ground (m)")
		cmd.Flags().Float64Var(&pf.toHeight, "to-height", 0, "destination antenna height above ground (m)")
		cmd.Flags().Float64Var(&pf.stepKm, "step", 0, "sample spacing in km (default: raster resolution)")
		cmd.Flags().Float64Var(&pf.marginKm, "margin", 1, "window margin around the path in km")
		_ = cmd.MarkFlagRequired("from")
		_ = cmd.MarkFlagRequired("to")
	}

	service := func() (*usecases.FeatureService, domain.PathRequest, error) {
		req, err := pf.request()
		if err != nil {
			return nil, req, err
		}
		dem, err := raster.LoadHGT(demPath)
		if err != nil {
			return nil, req, err
		}
		opts := usecases.FeatureOptions{Profile: terrain.ProfileOptions{StepKm: pf.stepKm, WindowMarginKm: pf.marginKm}}
		return usecases.NewFeatureService(dem, nil, nil, nil, nil, opts), req, nil
	}

	featuresCmd := &cobra.Command{
		Use:   "features",
		Short: "Compute roughness and barrier features of a path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, req, err := service()
			if err != nil {
				return err
			}
			f, err := svc.ComputePath(cmdContext(cmd), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(f)
		},
	}
	addPathFlags(featuresCmd)

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the sampled and leveled elevation profile of a path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, req, err := service()
			if err != nil {
				return err
			}
			report, err := svc.Profile(cmdContext(cmd), req)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "# bearing %.3f deg, %d samples\n", report.BearingDeg, report.Len())
			fmt.Fprintln(tw, "distance_km\televation_m\tleveled_m\t")
			for i := range report.Elevations {
				leveled := "-"
				if report.Values != nil {
					leveled = strconv.FormatFloat(report.Values[i], 'f', 2, 64)
				}
				fmt.Fprintf(tw, "%.3f\t%.1f\t%s\t\n", report.Distances[i], report.Elevations[i], leveled)
			}
			return tw.Flush()
		},
	}
	addPathFlags(profileCmd)

	root.AddCommand(bearingCmd, featuresCmd, profileCmd)
	return root
}

func (pf pathFlags) request() (domain.PathRequest, error) {
	from, err := parsePoint(pf.from)
	if err != nil {
		return domain.PathRequest{}, fmt.Errorf("--from: %w", err)
	}
	to, err := parsePoint(pf.to)
	if err != nil {
		return domain.PathRequest{}, fmt.Errorf("--to: %w", err)
	}
	return domain.PathRequest{
		Origin:            from,
		Destination:       to,
		OriginHeight:      pf.fromHeight,
		DestinationHeight: pf.toHeight,
	}, nil
}

func parsePoint(s string) (domain.GeoPoint, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: la, Lon: lo}, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
