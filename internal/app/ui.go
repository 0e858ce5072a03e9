package app

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/splatroam/internal/roaming"
	"github.com/philipparndt/splatroam/internal/telemetry"
	"github.com/philipparndt/splatroam/pkg/pathstore"
	"github.com/philipparndt/splatroam/pkg/scene"
	"github.com/philipparndt/splatroam/pkg/viewer"
)

// Window is the authoring window: the scene view plus the path panel
type Window struct {
	window     fyne.Window
	viewer     *Viewer
	view       *viewer.SceneView
	fullscreen *Fullscreen

	pathList       *widget.List
	nameEntry      *widget.Entry
	pointLabel     *widget.Label
	axisEntries    [3]*widget.Entry
	editCheck      *widget.Check
	statusLabel    *widget.Label
	telemetryLabel *widget.Label

	newButton         *widget.Button
	deletePathButton  *widget.Button
	renameButton      *widget.Button
	flattenButton     *widget.Button
	deletePointButton *widget.Button
	startButton       *widget.Button
	pauseButton       *widget.Button
	resumeButton      *widget.Button
	exitButton        *widget.Button

	// refreshing suppresses widget callbacks while widgets are updated from state
	refreshing bool
}

// NewWindow builds the authoring UI into win
func NewWindow(win fyne.Window, v *Viewer, view *viewer.SceneView) *Window {
	w := &Window{
		window:     win,
		viewer:     v,
		view:       view,
		fullscreen: NewFullscreen(win),
	}
	w.build()

	store := v.Store()
	store.Subscribe(func(pathstore.Snapshot) { w.refresh() })
	store.SubscribeSelection(func(_, _ int) { w.refresh() })
	v.Roaming().OnChange(func(_, _ roaming.State) { w.refresh() })
	v.OnStatus(func(s Status) {
		w.statusLabel.SetText(s.String())
		w.refresh()
	})
	v.Telemetry().Subscribe(func(r telemetry.Readout) { w.telemetryLabel.SetText(formatReadout(r)) })

	view.SetOnTap(func(p scene.Pointer) {
		v.Click(p)
		w.refresh()
	})
	win.SetOnClosed(v.Close)

	w.statusLabel.SetText(v.Status().String())
	w.refresh()
	return w
}

// Frame advances the viewer by one frame and redraws the scene
func (w *Window) Frame(dt time.Duration) {
	w.viewer.Tick(dt)
	w.view.Refresh()
}

func (w *Window) build() {
	store := w.viewer.Store()

	w.pathList = widget.NewList(
		func() int { return len(store.Paths()) },
		func() fyne.CanvasObject { return widget.NewLabel("Path") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			paths := store.Paths()
			if id >= len(paths) {
				return
			}
			item.(*widget.Label).SetText(fmt.Sprintf("%s (%d points)", paths[id].Name, len(paths[id].Points)))
		},
	)
	w.pathList.OnSelected = func(id widget.ListItemID) {
		if w.refreshing || !w.viewer.Ready() {
			return
		}
		w.notify(store.SetActive(id))
	}

	w.newButton = widget.NewButton("New Path", func() {
		store.CreatePath()
	})
	w.deletePathButton = widget.NewButton("Delete Path", func() {
		if active, ok := store.Active(); ok {
			w.notify(store.DeletePath(active))
		}
	})

	w.nameEntry = widget.NewEntry()
	w.nameEntry.SetPlaceHolder("Path name")
	rename := func() {
		if active, ok := store.Active(); ok {
			w.notify(store.RenamePath(active, w.nameEntry.Text))
		}
	}
	w.nameEntry.OnSubmitted = func(string) { rename() }
	w.renameButton = widget.NewButton("Rename", rename)

	w.pointLabel = widget.NewLabel("")
	for axis := range w.axisEntries {
		axis := axis
		entry := widget.NewEntry()
		entry.OnSubmitted = func(text string) {
			active, ok := store.Active()
			sel, selected := store.Selection()
			if ok && selected {
				w.notify(store.SetPointAxis(active, sel, axis, text))
			}
			w.refresh()
		}
		w.axisEntries[axis] = entry
	}

	w.flattenButton = widget.NewButton("Flatten", func() {
		active, ok := store.Active()
		if !ok {
			return
		}
		ref, _ := store.Selection()
		if ref == pathstore.None {
			ref = 0
		}
		w.notify(store.Flatten(active, ref))
	})
	w.deletePointButton = widget.NewButton("Delete Point", func() {
		active, ok := store.Active()
		sel, selected := store.Selection()
		if ok && selected {
			w.notify(store.DeletePoint(active, sel))
		}
	})

	w.editCheck = widget.NewCheck("Edit points", func(on bool) {
		if w.refreshing {
			return
		}
		w.viewer.Roaming().SetEditing(on)
	})

	w.startButton = widget.NewButton("Start", func() { _ = w.viewer.StartRoaming() })
	w.pauseButton = widget.NewButton("Pause", func() { _ = w.viewer.PauseRoaming() })
	w.resumeButton = widget.NewButton("Resume", func() { _ = w.viewer.ResumeRoaming() })
	w.exitButton = widget.NewButton("Exit", func() { _ = w.viewer.ExitRoaming() })

	w.statusLabel = widget.NewLabel("")
	w.statusLabel.Wrapping = fyne.TextWrapWord
	w.telemetryLabel = widget.NewLabel("")
	w.telemetryLabel.TextStyle = fyne.TextStyle{Monospace: true}

	fullscreenButton := widget.NewButton("Fullscreen", func() { w.fullscreen.Toggle() })

	instructions := widget.NewLabel(
		"Instructions:\n" +
			"• Enable editing and click the scene to add points\n" +
			"• Click a marker to select it\n" +
			"• Drag to rotate the view\n" +
			"• Scroll to zoom in/out",
	)
	instructions.Wrapping = fyne.TextWrapWord

	pathScroll := container.NewVScroll(w.pathList)
	pathScroll.SetMinSize(fyne.NewSize(0, 150))

	panel := container.NewVBox(
		widget.NewLabel("Paths:"),
		widget.NewSeparator(),
		pathScroll,
		container.NewGridWithColumns(2, w.newButton, w.deletePathButton),
		container.NewBorder(nil, nil, nil, w.renameButton, w.nameEntry),
		widget.NewSeparator(),
		widget.NewLabel("Points:"),
		w.editCheck,
		w.pointLabel,
		container.NewGridWithColumns(3, w.axisEntries[0], w.axisEntries[1], w.axisEntries[2]),
		container.NewGridWithColumns(2, w.flattenButton, w.deletePointButton),
		widget.NewSeparator(),
		widget.NewLabel("Roaming:"),
		container.NewGridWithColumns(4, w.startButton, w.pauseButton, w.resumeButton, w.exitButton),
		w.telemetryLabel,
		widget.NewSeparator(),
		instructions,
		fullscreenButton,
	)

	panelScroll := container.NewVScroll(panel)
	panelScroll.SetMinSize(fyne.NewSize(320, 0))

	content := container.NewBorder(
		nil,           // top
		w.statusLabel, // bottom
		nil,           // left
		panelScroll,   // right
		w.view,        // center
	)
	w.window.SetContent(content)
}

// refresh brings every widget in line with the store and roaming state
func (w *Window) refresh() {
	w.refreshing = true
	defer func() { w.refreshing = false }()

	store := w.viewer.Store()
	machine := w.viewer.Roaming()

	ready := w.viewer.Ready()

	w.pathList.Refresh()
	active, hasActive := store.Active()
	if hasActive {
		w.pathList.Select(active)
		w.nameEntry.SetText(store.Paths()[active].Name)
	} else {
		w.pathList.UnselectAll()
		w.nameEntry.SetText("")
	}

	sel, selected := store.Selection()
	if selected {
		p := store.Paths()[active].Points[sel]
		w.pointLabel.SetText(fmt.Sprintf("Point %d: %s", sel+1, p))
		for axis, entry := range w.axisEntries {
			entry.SetText(strconv.FormatFloat(p.Axis(axis), 'f', 3, 64))
			setEnabled(entry, ready)
		}
		setEnabled(w.deletePointButton, ready)
	} else {
		w.pointLabel.SetText("No point selected")
		for _, entry := range w.axisEntries {
			entry.SetText("")
			entry.Disable()
		}
		w.deletePointButton.Disable()
	}

	setEnabled(w.newButton, ready)
	setEnabled(w.deletePathButton, ready && hasActive)
	setEnabled(w.renameButton, ready && hasActive)
	setEnabled(w.nameEntry, ready && hasActive)
	setEnabled(w.flattenButton, ready && hasActive)
	setEnabled(w.editCheck, ready)
	w.editCheck.SetChecked(machine.Editing())

	state := machine.State()
	setEnabled(w.startButton, ready && state == roaming.Idle)
	setEnabled(w.pauseButton, ready && state == roaming.Active)
	setEnabled(w.resumeButton, ready && state == roaming.Paused)
	setEnabled(w.exitButton, ready && state != roaming.Idle)
}

// notify shows store errors in the status line
func (w *Window) notify(err error) {
	if err != nil {
		w.viewer.Notify(err.Error())
	}
}

func setEnabled(b fyne.Disableable, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

func formatReadout(r telemetry.Readout) string {
	return fmt.Sprintf("Position: %s\nRotation: %s\nTarget:   %s\nState:    %s (%.1f%%)",
		r.Position, r.Rotation, r.Target, r.State, r.Progress*100)
}
