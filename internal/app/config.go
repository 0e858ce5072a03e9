package app

import (
	"github.com/philipparndt/splatroam/internal/config"
	"github.com/philipparndt/splatroam/internal/motion"
	"github.com/philipparndt/splatroam/internal/persistence"
	"github.com/philipparndt/splatroam/internal/visual"
)

// MotionConfig maps the roaming settings onto the motion controller.
// Unset values keep the controller defaults.
func MotionConfig(rc config.RoamingConfig) motion.Config {
	cfg := motion.DefaultConfig()
	if rc.Step > 0 {
		cfg.Step = rc.Step
	}
	if rc.LookAhead > 0 {
		cfg.LookAhead = rc.LookAhead
	}
	if rc.Height != 0 {
		cfg.Height = rc.Height
	}
	if rc.Distance != 0 {
		cfg.Distance = rc.Distance
	}
	if rc.FlyDuration > 0 {
		cfg.FlyDuration = rc.FlyDuration
	}
	return cfg
}

// VisualStyle maps the visual settings and curve type onto a style
func VisualStyle(vc config.VisualConfig, curveAlpha float64) visual.Style {
	style := visual.DefaultStyle()
	if vc.MarkerRadius > 0 {
		style.MarkerRadius = vc.MarkerRadius
	}
	if vc.TubeRadius > 0 {
		style.TubeRadius = vc.TubeRadius
	}
	if vc.TubeSegments > 0 {
		style.TubeSegments = vc.TubeSegments
	}
	if curveAlpha >= 0 && curveAlpha <= 1 {
		style.CurveAlpha = curveAlpha
	}
	return style
}

// StorageOptions returns the persistence slot names
func StorageOptions(sc config.StorageConfig) persistence.Options {
	return persistence.Options{PathsKey: sc.PathsKey, ActiveKey: sc.ActiveKey}
}
