package main

import (
	"fmt"
	"time"

	"github.com/philipparndt/splatroam/internal/app"
	"github.com/philipparndt/splatroam/internal/config"
	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/internal/telemetry"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/viewer"
	"github.com/spf13/cobra"
)

// maxSettleFrames bounds the frames spent flying back after exit
const maxSettleFrames = 10000

func newRoamCmd(e *env) *cobra.Command {
	var (
		frames int
		every  int
		fps    int
	)

	cmd := &cobra.Command{
		Use:   "roam [path]",
		Short: "Play a path headless and print the camera telemetry",
		Long: `Roam along a stored path without a window, printing the camera position,
rotation and target. Without a path number the active path is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.withStore(func(cmd *cobra.Command, store *pathstore.Store, args []string) error {
			index, ok := store.Active()
			if len(args) == 1 {
				var err error
				if index, err = parseIndex("path", args[0]); err != nil {
					return err
				}
				ok = index < len(store.Paths())
			}
			if !ok {
				return pathstore.ErrNoSuchPath
			}
			if every < 1 {
				every = 1
			}
			if fps < 1 {
				fps = 60
			}
			return e.roam(cmd, store.Paths()[index], frames, every, time.Second/time.Duration(fps))
		}),
	}

	cmd.Flags().IntVar(&frames, "frames", 600, "number of frames to play")
	cmd.Flags().IntVar(&every, "every", 60, "print telemetry every N frames")
	cmd.Flags().IntVar(&fps, "fps", 60, "simulated frame rate")
	return cmd
}

func (e *env) roam(cmd *cobra.Command, path pathstore.Path, frames, every int, dt time.Duration) error {
	out := cmd.OutOrStdout()
	rc := config.GetRoamingConfig()

	bbox := geometry.NewBoundingBox()
	for _, p := range path.Points {
		bbox.Extend(p)
	}
	camera := viewer.NewCamera(bbox)
	controls := viewer.NewOrbitControls(camera)

	ctrl := motion.New(camera, app.MotionConfig(rc), e.log)
	machine := roaming.New(ctrl, controls, app.VisualStyle(config.GetVisualConfig(), rc.CurveAlpha).CurveAlpha, e.log, e.metrics)
	telem := telemetry.New(camera, machine, telemetry.Immediate)

	if err := machine.Start(path.Points); err != nil {
		return fmt.Errorf("roam %s: %w", path.Name, err)
	}
	fmt.Fprintf(out, "Roaming %s (%d points)\n", path.Name, len(path.Points))

	for frame := 1; frame <= frames; frame++ {
		machine.Tick(dt)
		if frame%every == 0 {
			fmt.Fprintf(out, "%5d %s\n", frame, telem.Read())
		}
	}

	if err := machine.Exit(); err != nil {
		return err
	}
	for i := 0; i < maxSettleFrames && ctrl.Flying(); i++ {
		machine.Tick(dt)
	}
	fmt.Fprintf(out, "Done %s\n", telem.Read())
	return nil
}
