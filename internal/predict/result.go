package predict

import (
	"fmt"
	"math"

	"dermascan/internal/jsonutil"
)

// Result is the classification returned for one submitted image.
type Result struct {
	Disease      string        `json:"disease"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// Alternative is a lower-ranked candidate label.
type Alternative struct {
	Disease     string      `json:"disease"`
	Probability Probability `json:"probability"`
}

// Probability keeps the display text of a probability sent either as a
// JSON string ("5%") or a number (0.05).
type Probability string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Probability) UnmarshalJSON(b []byte) error {
	s, err := jsonutil.StringOrNumber(b)
	if err != nil {
		return fmt.Errorf("probability: %w", err)
	}
	*p = Probability(s)
	return nil
}

// String returns the display text.
func (p Probability) String() string {
	return string(p)
}

// wireResult uses pointers so missing required fields can be told apart
// from zero values.
type wireResult struct {
	Disease      *string       `json:"disease"`
	Confidence   *float64      `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
}

// DecodeResult parses and validates a /predict response body.
// Every failure wraps ErrMalformed.
func DecodeResult(body []byte) (*Result, error) {
	var w wireResult
	if err := jsonutil.UnmarshalWithContext(body, &w, "decode prediction"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Disease == nil {
		return nil, fmt.Errorf("%w: missing disease", ErrMalformed)
	}
	if w.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ErrMalformed)
	}
	c := *w.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformed, c)
	}
	return &Result{
		Disease:      *w.Disease,
		Confidence:   c,
		Alternatives: w.Alternatives,
	}, nil
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string `json:"status"`
}

func jsonDecode(body []byte, v interface{}) error {
	return jsonutil.UnmarshalWithContext(body, v, "decode health")
}
