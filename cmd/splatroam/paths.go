package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/splatroam/internal/config"
	"github.com/philipparndt/splatroam/internal/persistence"
	"github.com/philipparndt/splatroam/pkg/analysis"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/spf13/cobra"
)

// storeRunner runs a command body against the opened path store
type storeRunner func(cmd *cobra.Command, store *pathstore.Store, args []string) error

func (e *env) withStore(run storeRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := e.openStore()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeStore(); cerr != nil {
				e.log.Warn().Err(cerr).Msg("Failed to close storage")
			}
		}()
		return run(cmd, store, args)
	}
}

func newPathsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Edit the stored roaming paths",
		Long: `Create, rename, delete and edit roaming paths without opening the viewer.
Path and point numbers start at 1, as shown by "paths list".`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all paths with their measurements",
			Args:  cobra.NoArgs,
			RunE:  e.withStore(runListPaths),
		},
		&cobra.Command{
			Use:   "new [name]",
			Short: "Create a path and make it active",
			Args:  cobra.MaximumNArgs(1),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				index := store.CreatePath()
				if len(args) == 1 {
					if err := store.RenamePath(index, args[0]); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created path %d: %s\n", index+1, store.Paths()[index].Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename <path> <name>",
			Short: "Rename a path",
			Args:  cobra.ExactArgs(2),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				index, err := parseIndex("path", args[0])
				if err != nil {
					return err
				}
				return store.RenamePath(index, args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete <path>",
			Short: "Delete a path",
			Args:  cobra.ExactArgs(1),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				index, err := parseIndex("path", args[0])
				if err != nil {
					return err
				}
				return store.DeletePath(index)
			}),
		},
		&cobra.Command{
			Use:   "activate <path>",
			Short: "Make a path the active one",
			Args:  cobra.ExactArgs(1),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				index, err := parseIndex("path", args[0])
				if err != nil {
					return err
				}
				return store.SetActive(index)
			}),
		},
		newAddPointCmd(e),
		&cobra.Command{
			Use:   "set-point <path> <point> <axis> <value>",
			Short: "Set one coordinate (x, y or z) of a point",
			Args:  cobra.ExactArgs(4),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				path, point, err := parsePathPoint(args[0], args[1])
				if err != nil {
					return err
				}
				axis, err := parseAxis(args[2])
				if err != nil {
					return err
				}
				// the store ignores unusable input; on the command line it is an error
				if _, err := parseCoordinate(args[3]); err != nil {
					return err
				}
				return store.SetPointAxis(path, point, axis, args[3])
			}),
		},
		&cobra.Command{
			Use:   "delete-point <path> <point>",
			Short: "Delete a point from a path",
			Args:  cobra.ExactArgs(2),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				path, point, err := parsePathPoint(args[0], args[1])
				if err != nil {
					return err
				}
				return store.DeletePoint(path, point)
			}),
		},
		&cobra.Command{
			Use:   "flatten <path> [reference-point]",
			Short: "Move every point of a path to the height of the reference point",
			Args:  cobra.RangeArgs(1, 2),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				path, err := parseIndex("path", args[0])
				if err != nil {
					return err
				}
				ref := 0
				if len(args) == 2 {
					if ref, err = parseIndex("point", args[1]); err != nil {
						return err
					}
				}
				return store.Flatten(path, ref)
			}),
		},
		&cobra.Command{
			Use:   "export [file]",
			Short: "Write all paths as JSON to a file or stdout",
			Args:  cobra.MaximumNArgs(1),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				data, err := persistence.Encode(store.Paths())
				if err != nil {
					return err
				}
				if len(args) == 0 {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				return os.WriteFile(args[0], data, 0o644)
			}),
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Replace all paths with the JSON in a file (- for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
				data, err := readInput(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				paths, err := persistence.Decode(data)
				if err != nil {
					return err
				}
				active := pathstore.None
				if len(paths) > 0 {
					active = 0
				}
				store.Load(paths, active)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d paths\n", len(paths))
				return nil
			}),
		},
	)
	return cmd
}

func newAddPointCmd(e *env) *cobra.Command {
	var snap string

	cmd := &cobra.Command{
		Use:   "add-point <path> <x> <y> <z>",
		Short: "Append a point to a path",
		Long: `Append a point to a path. With --snap the point is moved onto the nearest
point of the given scene asset, the way a click on the scene places it.`,
		Args: cobra.ExactArgs(4),
		RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
			path, err := parseIndex("path", args[0])
			if err != nil {
				return err
			}
			var coords [3]float64
			for i, arg := range args[1:] {
				if coords[i], err = parseCoordinate(arg); err != nil {
					return err
				}
			}
			point := geometry.NewVector3(coords[0], coords[1], coords[2])

			if snap != "" {
				c, err := cloud.Open(cmd.Context(), snap, nil)
				if err != nil {
					return err
				}
				nearest, dist, ok := analysis.FindNearestPoint(c, point)
				if !ok {
					return fmt.Errorf("asset %s has no points", snap)
				}
				e.log.Debug().Float64("distance", dist).Msg("Point snapped to scene")
				point = nearest
			}

			index, err := store.AppendPoint(path, point)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added point %d: %s\n", index+1, analysis.FormatVector(point))
			return nil
		}),
	}
	cmd.Flags().StringVar(&snap, "snap", "", "snap the point onto this scene asset")
	return cmd
}

func runListPaths(cmd *cobra.Command, store *pathstore.Store, _ []string) error {
	out := cmd.OutOrStdout()
	paths := store.Paths()
	if len(paths) == 0 {
		fmt.Fprintln(out, "No paths")
		return nil
	}
	active, _ := store.Active()
	alpha := config.GetRoamingConfig().CurveAlpha

	for i, p := range paths {
		marker := " "
		if i == active {
			marker = "*"
		}
		result := analysis.AnalyzePath(p, alpha)
		fmt.Fprintf(out, "%s %d. %s (%d points)\n", marker, i+1, p.Name, result.PointCount)
		for j, pt := range p.Points {
			fmt.Fprintf(out, "     %d: %s\n", j+1, analysis.FormatVector(pt))
		}
		if result.Roamable {
			fmt.Fprintf(out, "     Length: %s (curve %s)\n",
				analysis.FormatMeasurement(result.PolylineLength, ""),
				analysis.FormatMeasurement(result.CurveLength, ""))
		}
	}
	return nil
}

// parseIndex turns a 1-based number into a store index
func parseIndex(what, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s number %q", what, arg)
	}
	return n - 1, nil
}

func parsePathPoint(pathArg, pointArg string) (int, int, error) {
	path, err := parseIndex("path", pathArg)
	if err != nil {
		return 0, 0, err
	}
	point, err := parseIndex("point", pointArg)
	if err != nil {
		return 0, 0, err
	}
	return path, point, nil
}

// parseCoordinate accepts finite numbers only; NaN and Inf parse but cannot be stored
func parseCoordinate(arg string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid coordinate %q", arg)
	}
	return f, nil
}

func parseAxis(arg string) (int, error) {
	switch strings.ToLower(arg) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y or z", arg)
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
