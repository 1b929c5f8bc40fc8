package controller

// Phase is the controller's current mode. It decides which display regions
// are visible and which actions are accepted.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapturing
	PhasePreviewing
	PhaseAnalyzing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseCapturing:
		return "Capturing"
	case PhasePreviewing:
		return "Previewing"
	case PhaseAnalyzing:
		return "Analyzing"
	default:
		return "Unknown"
	}
}
