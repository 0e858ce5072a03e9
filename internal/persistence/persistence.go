// Package persistence caches the path store in two key-value slots: the
// serialized path list and the index of the last active path.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/philipparndt/splatroam/internal/kvstore"
	"github.com/philipparndt/splatroam/internal/metrics"
	"github.com/philipparndt/splatroam/pkg/geometry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/rs/zerolog"
)

// Default slot names
const (
	DefaultPathsKey  = "splatroam.paths"
	DefaultActiveKey = "splatroam.activePathIndex"
)

var errMalformed = errors.New("malformed path data")

// PathData is the stored layout of one path
type PathData struct {
	Name   string      `json:"name"`
	Points []PointData `json:"points"`
}

// PointData is a stored point. Coordinates are pointers so a missing value
// can be told apart from zero.
type PointData struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// State is what Load recovers
type State struct {
	Paths  []pathstore.Path
	Active int
}

// Options configures the slot names
type Options struct {
	PathsKey  string
	ActiveKey string
}

// Adapter reads and writes the path store through a kvstore
type Adapter struct {
	kv      kvstore.Store
	opts    Options
	log     zerolog.Logger
	metrics *metrics.Instruments
}

// New creates an adapter. Empty slot names fall back to the defaults.
func New(kv kvstore.Store, opts Options, log zerolog.Logger, m *metrics.Instruments) *Adapter {
	if opts.PathsKey == "" {
		opts.PathsKey = DefaultPathsKey
	}
	if opts.ActiveKey == "" {
		opts.ActiveKey = DefaultActiveKey
	}
	return &Adapter{
		kv:      kv,
		opts:    opts,
		log:     log.With().Str("component", "persistence").Logger(),
		metrics: m,
	}
}

// Load reads the stored state. Missing slots mean no prior state. A malformed
// path list yields an empty state and its slot is erased; an unusable active
// index is treated as absent and erased.
func (a *Adapter) Load() State {
	state := State{Active: pathstore.None}

	raw, ok, err := a.kv.Get(a.opts.PathsKey)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to read stored paths")
		return state
	}
	if ok {
		paths, err := Decode([]byte(raw))
		if err != nil {
			a.log.Warn().Err(err).Str("slot", a.opts.PathsKey).Msg("Discarding malformed stored paths")
			a.erase(a.opts.PathsKey)
			a.erase(a.opts.ActiveKey)
			return state
		}
		state.Paths = paths
	}

	raw, ok, err = a.kv.Get(a.opts.ActiveKey)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to read stored active path")
		return state
	}
	if !ok {
		return state
	}
	active, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || active < 0 || active >= len(state.Paths) {
		a.log.Warn().Str("value", raw).Msg("Discarding invalid stored active path index")
		a.erase(a.opts.ActiveKey)
		return state
	}
	state.Active = active
	return state
}

// Save re-serializes the whole path list and writes or removes the active index
func (a *Adapter) Save(paths []pathstore.Path, active int) error {
	data, err := Encode(paths)
	if err != nil {
		return err
	}
	if err := a.kv.Set(a.opts.PathsKey, string(data)); err != nil {
		return fmt.Errorf("failed to save paths: %w", err)
	}
	if active == pathstore.None {
		if err := a.kv.Delete(a.opts.ActiveKey); err != nil {
			return fmt.Errorf("failed to clear active path: %w", err)
		}
		return nil
	}
	if err := a.kv.Set(a.opts.ActiveKey, strconv.Itoa(active)); err != nil {
		return fmt.Errorf("failed to save active path: %w", err)
	}
	return nil
}

// Attach writes every store mutation through to storage. Failures are logged
// and otherwise ignored.
func (a *Adapter) Attach(store *pathstore.Store) (cancel func()) {
	return store.Subscribe(func(snap pathstore.Snapshot) {
		err := a.Save(snap.Paths, snap.Active)
		a.metrics.Write(err)
		if err != nil {
			a.log.Warn().Err(err).Msg("Failed to persist paths")
		}
	})
}

func (a *Adapter) erase(key string) {
	if err := a.kv.Delete(key); err != nil {
		a.log.Warn().Err(err).Str("slot", key).Msg("Failed to erase slot")
	}
}

// Encode serializes paths in the stored layout
func Encode(paths []pathstore.Path) ([]byte, error) {
	out := make([]PathData, 0, len(paths))
	for _, p := range paths {
		pd := PathData{Name: p.Name, Points: make([]PointData, 0, len(p.Points))}
		for _, pt := range p.Points {
			x, y, z := pt.X, pt.Y, pt.Z
			pd.Points = append(pd.Points, PointData{X: &x, Y: &y, Z: &z})
		}
		out = append(out, pd)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal paths: %w", err)
	}
	return data, nil
}

// Decode parses the stored layout. Any missing or non-numeric coordinate, or
// a payload that is not a list of paths, is reported as malformed.
func Decode(data []byte) ([]pathstore.Path, error) {
	var in []PathData
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if in == nil {
		// "null"
		return nil, fmt.Errorf("%w: not a list", errMalformed)
	}

	paths := make([]pathstore.Path, 0, len(in))
	for i, pd := range in {
		p := pathstore.Path{Name: pd.Name}
		for j, pt := range pd.Points {
			if pt.X == nil || pt.Y == nil || pt.Z == nil {
				return nil, fmt.Errorf("%w: path %d point %d is incomplete", errMalformed, i, j)
			}
			p.Points = append(p.Points, geometry.NewVector3(*pt.X, *pt.Y, *pt.Z))
		}
		paths = append(paths, p)
	}
	return paths, nil
}
