package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResult(t *testing.T) {
	r, err := DecodeResult([]byte(`{"disease":"Leaf Blight","confidence":0.92,"alternatives":[{"disease":"Rust","probability":"5%"},{"disease":"Eczema","probability":0.03}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Leaf Blight", r.Disease)
	assert.InDelta(t, 0.92, r.Confidence, 1e-9)
	require.Len(t, r.Alternatives, 2)
	assert.Equal(t, "Rust", r.Alternatives[0].Disease)
	assert.Equal(t, "5%", r.Alternatives[0].Probability.String())
	assert.Equal(t, "0.03", r.Alternatives[1].Probability.String())
}

func TestDecodeResult_AlternativesOptional(t *testing.T) {
	for _, body := range []string{
		`{"disease":"Acne","confidence":0.5}`,
		`{"disease":"Acne","confidence":0.5,"alternatives":[]}`,
		`{"disease":"Acne","confidence":0.5,"alternatives":null}`,
	} {
		r, err := DecodeResult([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, r.Alternatives, body)
	}
}

func TestDecodeResult_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":            `<html>oops</html>`,
		"missing disease":     `{"confidence":0.4}`,
		"missing confidence":  `{"disease":"Acne"}`,
		"string confidence":   `{"disease":"Acne","confidence":"0.4"}`,
		"confidence too big":  `{"disease":"Acne","confidence":1.5}`,
		"negative confidence": `{"disease":"Acne","confidence":-0.1}`,
		"alternatives object": `{"disease":"Acne","confidence":0.4,"alternatives":{}}`,
		"bad probability":     `{"disease":"Acne","confidence":0.4,"alternatives":[{"disease":"x","probability":true}]}`,
		"empty body":          ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeResult([]byte(body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
