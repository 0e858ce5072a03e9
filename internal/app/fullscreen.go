package app

import "fyne.io/fyne/v2"

// fullscreenWindow is the part of fyne.Window fullscreen handling needs
type fullscreenWindow interface {
	FullScreen() bool
	SetFullScreen(bool)
	Resize(fyne.Size)
}

// Fullscreen toggles the window and restores the canvas size on exit
type Fullscreen struct {
	win   fullscreenWindow
	size  func() fyne.Size
	saved fyne.Size
}

// NewFullscreen creates a toggle for the window
func NewFullscreen(w fyne.Window) *Fullscreen {
	return &Fullscreen{win: w, size: func() fyne.Size { return w.Canvas().Size() }}
}

// OnFullscreen enters or leaves fullscreen. Entering captures the canvas
// size, leaving restores it.
func (f *Fullscreen) OnFullscreen(enter bool) {
	if enter == f.win.FullScreen() {
		return
	}
	if enter {
		f.saved = f.size()
		f.win.SetFullScreen(true)
		return
	}
	f.win.SetFullScreen(false)
	if f.saved.Width > 0 && f.saved.Height > 0 {
		f.win.Resize(f.saved)
	}
}

// Toggle flips the fullscreen state
func (f *Fullscreen) Toggle() {
	f.OnFullscreen(!f.win.FullScreen())
}
