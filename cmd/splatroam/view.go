package main

import (
	"context"
	"errors"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/philipparndt/splatroam/internal/api"
	"github.com/philipparndt/splatroam/internal/app"
	"github.com/philipparndt/splatroam/internal/config"
	"github.com/philipparndt/splatroam/internal/kvstore"
	"github.com/philipparndt/splatroam/pkg/viewer"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

func newViewCmd(e *env) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "view [asset]",
		Short: "Open the scene viewer",
		Long: `Open the interactive viewer. The scene is loaded from a local .splat, .ply
or .xyz file or URL, or, with --tenant, from the case service's last scene.
Without either a file dialog is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := ""
			if len(args) == 1 {
				location = args[0]
			}
			if location != "" && tenant != "" {
				return errors.New("pass either an asset or --tenant, not both")
			}
			return e.runViewer(cmd.Context(), location, tenant)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "load the last scene of this tenant from the case service")
	return cmd
}

func (e *env) runViewer(ctx context.Context, location, tenant string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sc := config.GetStorageConfig()
	kv, err := kvstore.New(kvstore.Config{Type: sc.Type, Path: sc.Path}, e.log)
	if err != nil {
		return err
	}
	defer kv.Close()

	rc := config.GetRoamingConfig()
	vc := config.GetViewerConfig()

	a := fyneapp.New()
	w := a.NewWindow("splatroam")
	view := viewer.NewSceneView()

	v := app.New(app.Options{
		Renderer: view,
		Camera:   view.Camera(),
		Controls: view.Controls(),
		KV:       kv,
		Storage:  app.StorageOptions(sc),
		Motion:   app.MotionConfig(rc),
		Style:    app.VisualStyle(config.GetVisualConfig(), rc.CurveAlpha),
		Schedule: fyne.Do,
		Log:      e.log,
		Metrics:  e.metrics,
	})
	ui := app.NewWindow(w, v, view)

	start := func(location string, loader app.Loader) {
		v.Init(ctx, loader, view.SetCloud)
		if !vc.WatchAsset || !app.IsLocal(location) {
			return
		}
		fw, err := app.WatchAsset(ctx, v, location, watchDebounce, e.log)
		if err != nil {
			e.log.Warn().Err(err).Str("asset", location).Msg("Asset changes will not be picked up")
			return
		}
		go func() {
			<-ctx.Done()
			fw.Close()
		}()
	}

	switch {
	case tenant != "":
		ac := config.GetAPIConfig()
		start("", app.SceneLoader(api.New(ac.BaseURL, ac.Timeout), tenant, e.log))
	case location != "":
		start(location, app.AssetLoader(location))
	default:
		a.Lifecycle().SetOnStarted(func() {
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err != nil {
					v.Notify(err.Error())
					return
				}
				if reader == nil {
					v.Notify("No scene selected")
					return
				}
				path := reader.URI().Path()
				_ = reader.Close()
				start(path, app.AssetLoader(path))
			}, w)
		})
	}

	go app.RunLoop(ctx, vc.FPS, fyne.Do, ui.Frame)

	w.Resize(fyne.NewSize(float32(vc.Width), float32(vc.Height)))
	w.ShowAndRun()
	return nil
}
