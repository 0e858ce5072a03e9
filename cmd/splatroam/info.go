package main

import (
	"fmt"

	"github.com/philipparndt/splatroam/pkg/analysis"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/spf13/cobra"
)

func newInfoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "info <asset>",
		Short: "Display general information about a point-cloud asset",
		Long:  "Show point count, bounding box, dimensions and density of a .splat, .ply or .xyz file or URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := args[0]
			c, err := cloud.Open(cmd.Context(), location, nil)
			if err != nil {
				return err
			}
			e.log.Debug().Str("asset", location).Int("points", c.Count()).Msg("Asset parsed")

			result := analysis.AnalyzeCloud(c)
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Point Cloud Information")
			fmt.Fprintln(out, "=======================")
			if c.Name != "" {
				fmt.Fprintf(out, "Name: %s\n", c.Name)
			}
			fmt.Fprintf(out, "Asset: %s\n\n", location)
			fmt.Fprintf(out, "Points: %d\n\n", result.PointCount)
			if result.BoundingBox.Empty() {
				return nil
			}

			fmt.Fprintln(out, "Bounding Box:")
			fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
			fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
			fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

			fmt.Fprintln(out, "Dimensions:")
			fmt.Fprintf(out, "  Width (X): %s\n", analysis.FormatMeasurement(result.Dimensions.X, ""))
			fmt.Fprintf(out, "  Height (Y): %s\n", analysis.FormatMeasurement(result.Dimensions.Y, ""))
			fmt.Fprintf(out, "  Depth (Z): %s\n", analysis.FormatMeasurement(result.Dimensions.Z, ""))
			fmt.Fprintf(out, "  Diagonal: %s\n", analysis.FormatMeasurement(result.BoundingBox.Diagonal(), ""))
			fmt.Fprintf(out, "  Density: %.3f points per cubic unit\n", result.Density)
			return nil
		},
	}
}
