// Package pathstore holds the authored roaming paths of a scene together with
// the active path and the selected point.
//
// Every successful mutation publishes exactly one new immutable Snapshot to
// the path observers. Stored slices are never modified in place, so a
// snapshot handed out earlier stays valid.
package pathstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/philipparndt/splatroam/pkg/geometry"
)

// None marks an absent active path or selection
const None = -1

var (
	ErrNoSuchPath   = errors.New("no such path")
	ErrNoSuchPoint  = errors.New("no such point")
	ErrTooFewPoints = errors.New("path needs at least 2 points")
	ErrNonFinite    = errors.New("point coordinates must be finite numbers")
)

// Path is a named, ordered list of points. Identity is its position in the store.
type Path struct {
	Name   string
	Points []geometry.Vector3
}

// Clone returns a deep copy of the path
func (p Path) Clone() Path {
	return Path{Name: p.Name, Points: append([]geometry.Vector3(nil), p.Points...)}
}

// Snapshot is an immutable view of the path list and the active index
type Snapshot struct {
	Paths  []Path
	Active int
}

// ActivePath returns the active path, if any
func (s Snapshot) ActivePath() (Path, bool) {
	if s.Active < 0 || s.Active >= len(s.Paths) {
		return Path{}, false
	}
	return s.Paths[s.Active], true
}

// Store is the in-memory path collection. It is not safe for concurrent use;
// all calls are expected on the UI goroutine.
type Store struct {
	paths     []Path
	active    int
	selection int

	observers    map[int]func(Snapshot)
	selObservers map[int]func(prev, next int)
	nextID       int
}

// New creates an empty store
func New() *Store {
	return &Store{
		active:       None,
		selection:    None,
		observers:    make(map[int]func(Snapshot)),
		selObservers: make(map[int]func(prev, next int)),
	}
}

// Load seeds the store, typically from persistence before any observer is
// attached. An out-of-range active index is dropped.
func (s *Store) Load(paths []Path, active int) {
	s.paths = make([]Path, len(paths))
	for i, p := range paths {
		s.paths[i] = p.Clone()
	}
	if active < 0 || active >= len(s.paths) {
		active = None
	}
	s.active = active
	s.setSelection(None)
	s.publish()
}

// Snapshot returns the current path list and active index
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Paths: s.paths, Active: s.active}
}

// Paths returns the current path list. Callers must not modify it.
func (s *Store) Paths() []Path {
	return s.paths
}

// Active returns the active path index
func (s *Store) Active() (int, bool) {
	return s.active, s.active != None
}

// ActivePath returns the active path
func (s *Store) ActivePath() (Path, bool) {
	return s.Snapshot().ActivePath()
}

// Selection returns the selected point index of the active path
func (s *Store) Selection() (int, bool) {
	return s.selection, s.selection != None
}

// Subscribe registers a path list observer
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

// SubscribeSelection registers a selection observer. It is called with the
// previous and new selection (None when cleared) whenever they differ.
func (s *Store) SubscribeSelection(fn func(prev, next int)) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.selObservers[id] = fn
	return func() { delete(s.selObservers, id) }
}

// CreatePath appends an empty path, makes it active and returns its index
func (s *Store) CreatePath() int {
	paths := s.copyPaths()
	paths = append(paths, Path{Name: fmt.Sprintf("Path %d", len(paths)+1)})
	s.paths = paths
	s.active = len(paths) - 1
	s.setSelection(None)
	s.publish()
	return s.active
}

// DeletePath removes a path. Deleting the active path activates the path now
// at the same index, or the last one, or none. Selection is always cleared.
func (s *Store) DeletePath(index int) error {
	if err := s.checkPath(index); err != nil {
		return err
	}

	paths := make([]Path, 0, len(s.paths)-1)
	paths = append(paths, s.paths[:index]...)
	paths = append(paths, s.paths[index+1:]...)
	s.paths = paths

	switch {
	case len(paths) == 0:
		s.active = None
	case s.active == index:
		if index >= len(paths) {
			s.active = len(paths) - 1
		}
	case s.active > index:
		s.active--
	}

	s.setSelection(None)
	s.publish()
	return nil
}

// RenamePath changes the name of a path
func (s *Store) RenamePath(index int, name string) error {
	if err := s.checkPath(index); err != nil {
		return err
	}
	paths := s.copyPaths()
	paths[index] = Path{Name: name, Points: paths[index].Points}
	s.paths = paths
	s.publish()
	return nil
}

// SetActive switches the active path; None deactivates. Selection is cleared
// when the active path changes.
func (s *Store) SetActive(index int) error {
	if index != None {
		if err := s.checkPath(index); err != nil {
			return err
		}
	}
	if index == s.active {
		return nil
	}
	s.active = index
	s.setSelection(None)
	s.publish()
	return nil
}

// Select selects a point of the active path; None clears the selection
func (s *Store) Select(index int) error {
	if index == None {
		s.setSelection(None)
		return nil
	}
	p, ok := s.ActivePath()
	if !ok {
		return fmt.Errorf("select point %d: %w", index, ErrNoSuchPath)
	}
	if index < 0 || index >= len(p.Points) {
		return fmt.Errorf("select point %d: %w", index, ErrNoSuchPoint)
	}
	s.setSelection(index)
	return nil
}

// ClearSelection drops the selected point
func (s *Store) ClearSelection() {
	s.setSelection(None)
}

// AppendPoint adds a point to the end of a path and returns its index.
// A point with a non-finite coordinate is rejected and nothing changes.
func (s *Store) AppendPoint(pathIndex int, point geometry.Vector3) (int, error) {
	if err := s.checkPath(pathIndex); err != nil {
		return None, err
	}
	if !point.IsFinite() {
		return None, fmt.Errorf("append %s to path %d: %w", point, pathIndex, ErrNonFinite)
	}
	s.updatePoints(pathIndex, func(points []geometry.Vector3) []geometry.Vector3 {
		return append(points, point)
	})
	s.publish()
	return len(s.paths[pathIndex].Points) - 1, nil
}

// SetPoint replaces a point. Non-finite coordinates are ignored.
func (s *Store) SetPoint(pathIndex, pointIndex int, point geometry.Vector3) error {
	if err := s.checkPoint(pathIndex, pointIndex); err != nil {
		return err
	}
	if !point.IsFinite() {
		return nil
	}
	s.updatePoints(pathIndex, func(points []geometry.Vector3) []geometry.Vector3 {
		points[pointIndex] = point
		return points
	})
	s.publish()
	return nil
}

// SetPointAxis sets one coordinate (0=X, 1=Y, 2=Z) from text input.
// Text that is not a finite number is ignored.
func (s *Store) SetPointAxis(pathIndex, pointIndex, axis int, text string) error {
	if err := s.checkPoint(pathIndex, pointIndex); err != nil {
		return err
	}
	if axis < 0 || axis > 2 {
		return fmt.Errorf("invalid axis %d", axis)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil
	}
	p := s.paths[pathIndex].Points[pointIndex]
	return s.SetPoint(pathIndex, pointIndex, p.WithAxis(axis, v))
}

// DeletePoint removes a point. On the active path the selection is cleared
// when it was the deleted point and shifted down when it came after it.
func (s *Store) DeletePoint(pathIndex, pointIndex int) error {
	if err := s.checkPoint(pathIndex, pointIndex); err != nil {
		return err
	}
	s.updatePoints(pathIndex, func(points []geometry.Vector3) []geometry.Vector3 {
		return append(points[:pointIndex], points[pointIndex+1:]...)
	})

	if pathIndex == s.active && s.selection != None {
		switch {
		case s.selection == pointIndex:
			s.setSelection(None)
		case s.selection > pointIndex:
			s.setSelection(s.selection - 1)
		}
	}
	s.publish()
	return nil
}

// Flatten sets the vertical coordinate (Y) of every point of a path to that of
// the reference point. Horizontal coordinates are untouched.
func (s *Store) Flatten(pathIndex, referencePointIndex int) error {
	if err := s.checkPoint(pathIndex, referencePointIndex); err != nil {
		return err
	}
	if len(s.paths[pathIndex].Points) < 2 {
		return fmt.Errorf("flatten path %d: %w", pathIndex, ErrTooFewPoints)
	}
	y := s.paths[pathIndex].Points[referencePointIndex].Y
	s.updatePoints(pathIndex, func(points []geometry.Vector3) []geometry.Vector3 {
		for i := range points {
			points[i].Y = y
		}
		return points
	})
	s.publish()
	return nil
}

func (s *Store) checkPath(index int) error {
	if index < 0 || index >= len(s.paths) {
		return fmt.Errorf("path %d: %w", index, ErrNoSuchPath)
	}
	return nil
}

func (s *Store) checkPoint(pathIndex, pointIndex int) error {
	if err := s.checkPath(pathIndex); err != nil {
		return err
	}
	if pointIndex < 0 || pointIndex >= len(s.paths[pathIndex].Points) {
		return fmt.Errorf("path %d point %d: %w", pathIndex, pointIndex, ErrNoSuchPoint)
	}
	return nil
}

// copyPaths returns a new path list sharing the (immutable) point slices
func (s *Store) copyPaths() []Path {
	return append(make([]Path, 0, len(s.paths)+1), s.paths...)
}

// updatePoints replaces one path with a copy whose points went through fn
func (s *Store) updatePoints(pathIndex int, fn func([]geometry.Vector3) []geometry.Vector3) {
	paths := s.copyPaths()
	old := paths[pathIndex]
	points := make([]geometry.Vector3, len(old.Points), len(old.Points)+1)
	copy(points, old.Points)
	paths[pathIndex] = Path{Name: old.Name, Points: fn(points)}
	s.paths = paths
}

func (s *Store) setSelection(index int) {
	if index == s.selection {
		return
	}
	prev := s.selection
	s.selection = index
	for _, fn := range s.selObservers {
		fn(prev, index)
	}
}

func (s *Store) publish() {
	snap := s.Snapshot()
	for _, fn := range s.observers {
		fn(snap)
	}
}
