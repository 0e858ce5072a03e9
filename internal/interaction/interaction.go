// Package interaction resolves pointer clicks on the scene into selection and
// point placement on the active path.
package interaction

import (
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/rs/zerolog"
)

// Markers exposes the materialized point markers
type Markers interface {
	Markers() []scene.Object
	MarkerIndex(obj scene.Object) int
}

// Mode exposes the roaming and editing flags
type Mode interface {
	Roaming() bool
	Editing() bool
	SetEditing(editing bool)
}

// Handler handles clicks on the render surface
type Handler struct {
	store   *pathstore.Store
	markers Markers
	picker  scene.Picker
	surface scene.SurfacePicker
	mode    Mode
	log     zerolog.Logger
}

// New creates a click handler
func New(store *pathstore.Store, markers Markers, picker scene.Picker, surface scene.SurfacePicker, mode Mode, log zerolog.Logger) *Handler {
	return &Handler{
		store:   store,
		markers: markers,
		picker:  picker,
		surface: surface,
		mode:    mode,
		log:     log.With().Str("component", "interaction").Logger(),
	}
}

// Click handles a click and reports whether it was consumed. Unconsumed clicks
// fall through to scene navigation.
//
// Markers take priority over the surface so a point buried in dense geometry
// can still be selected. A click that misses every marker clears the
// selection and, in editing mode, appends the surface point under the
// pointer to the active path.
func (h *Handler) Click(p scene.Pointer) bool {
	if h.mode.Roaming() {
		return false
	}

	if hits := h.picker.PickObjects(p, h.markers.Markers()); len(hits) > 0 {
		index := h.markers.MarkerIndex(hits[0].Object)
		if index != pathstore.None {
			if err := h.store.Select(index); err != nil {
				h.log.Warn().Err(err).Int("index", index).Msg("Picked marker without a point")
				return false
			}
			h.mode.SetEditing(true)
			return true
		}
	}

	h.store.ClearSelection()
	active, ok := h.store.Active()
	if !h.mode.Editing() || !ok {
		return false
	}

	origin, ok := firstFinite(h.surface.PickSurface(p))
	if !ok {
		return false
	}
	index, err := h.store.AppendPoint(active, origin)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to add point")
		return false
	}
	if err := h.store.Select(index); err != nil {
		h.log.Warn().Err(err).Msg("Failed to select new point")
	}
	h.log.Debug().Int("path", active).Int("point", index).Stringer("at", origin).Msg("Point added")
	return true
}

// firstFinite returns the first hit origin with finite coordinates; splats
// with broken positions can produce NaN hits
func firstFinite(hits []scene.SurfaceHit) (geometry.Vector3, bool) {
	for _, hit := range hits {
		if hit.Origin.IsFinite() {
			return hit.Origin, true
		}
	}
	return geometry.Vector3{}, false
}
