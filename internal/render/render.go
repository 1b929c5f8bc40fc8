// Package render computes what the screen should show from a controller
// snapshot. It has no terminal dependencies; internal/ui applies the result.
package render

import (
	"math"
	"strconv"

	"dermascan/internal/controller"
	"dermascan/internal/predict"
)

// NoMatchesText is shown when a prediction has no alternatives.
const NoMatchesText = "No other matches"

// AlternativeSeparator joins an alternative's label and probability.
const AlternativeSeparator = " — "

// Tier is the confidence color band.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Tier thresholds, on the rounded percent:
//
//	percent > 80       high   (green)
//	50 < percent <= 80 medium (blue)
//	percent <= 50      low    (yellow)
const (
	HighAbove   = 80
	MediumAbove = 50
)

// Percent converts a confidence in [0,1] to a whole percent, rounding half
// away from zero and clamping to [0,100].
func Percent(confidence float64) int {
	if math.IsNaN(confidence) {
		return 0
	}
	p := int(math.Round(confidence * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// TierFor returns the band for a percent.
func TierFor(percent int) Tier {
	switch {
	case percent > HighAbove:
		return TierHigh
	case percent > MediumAbove:
		return TierMedium
	default:
		return TierLow
	}
}

// BarFill returns how many of width cells a percent fills.
func BarFill(percent, width int) int {
	if width <= 0 {
		return 0
	}
	n := int(math.Round(float64(percent) * float64(width) / 100))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

// AltRow is one rendered alternative.
type AltRow struct {
	Label       string
	Probability string
}

func (r AltRow) String() string {
	return r.Label + AlternativeSeparator + r.Probability
}

// ResultView is the rendered prediction.
type ResultView struct {
	Label        string
	Percent      int
	PercentText  string
	Tier         Tier
	Alternatives []AltRow
	NoMatches    bool
}

// NewResultView renders r. Alternatives keep the order received.
func NewResultView(r *predict.Result) *ResultView {
	if r == nil {
		return nil
	}
	p := Percent(r.Confidence)
	v := &ResultView{
		Label:       r.Disease,
		Percent:     p,
		PercentText: strconv.Itoa(p) + "%",
		Tier:        TierFor(p),
	}
	for _, a := range r.Alternatives {
		v.Alternatives = append(v.Alternatives, AltRow{Label: a.Disease, Probability: a.Probability.String()})
	}
	v.NoMatches = len(v.Alternatives) == 0
	return v
}

// PreviewView describes the selected image.
type PreviewView struct {
	Name     string
	MIMEType string
	Width    int
	Height   int
	Bytes    int
}

// VisualState is everything the display layer needs. The booleans are the
// region visibility flags; they are derived, never stored.
type VisualState struct {
	Phase controller.Phase

	CameraOpen     bool
	CameraLive     bool
	PreviewVisible bool
	ResultVisible  bool
	LoadingVisible bool
	AnalyzeVisible bool

	Preview *PreviewView
	Result  *ResultView

	Notice        string
	NoticeIsError bool
}

// Compute derives the visual state for a snapshot.
func Compute(s controller.Snapshot) VisualState {
	v := VisualState{Phase: s.Phase}
	if s.Notice != nil {
		v.Notice = s.Notice.Text
		v.NoticeIsError = s.Notice.IsError()
	}
	if s.Image != nil {
		v.Preview = &PreviewView{
			Name:     s.Image.Name,
			MIMEType: s.Image.MIMEType,
			Width:    s.Image.Width,
			Height:   s.Image.Height,
			Bytes:    s.Image.Size(),
		}
	}

	switch s.Phase {
	case controller.PhaseCapturing:
		v.CameraOpen = true
		v.CameraLive = s.CameraLive
	case controller.PhasePreviewing:
		v.PreviewVisible = v.Preview != nil
		v.AnalyzeVisible = v.Preview != nil
		if s.Result != nil {
			v.ResultVisible = true
			v.Result = NewResultView(s.Result)
		}
	case controller.PhaseAnalyzing:
		v.PreviewVisible = v.Preview != nil
		v.LoadingVisible = true
	}
	if !v.PreviewVisible {
		v.Preview = nil
	}
	return v
}
