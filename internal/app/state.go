package app

import "fmt"

// Phase is the viewer lifecycle phase
type Phase int

const (
	Loading Phase = iota
	Ready
	// Failed is terminal; the failure message stays until the viewer closes
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status is what the status line shows
type Status struct {
	Phase Phase
	// Progress is the asset load progress in [0, 1] while Loading
	Progress float64
	// Message is the failure reason when Failed, otherwise the latest notice
	Message string
}

func (s Status) String() string {
	if s.Phase == Loading && s.Message == "" {
		return fmt.Sprintf("Loading scene... %.0f%%", s.Progress*100)
	}
	return s.Message
}
