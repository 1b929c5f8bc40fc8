package predict

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"dermascan/internal/imageio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T) *imageio.Image {
	t.Helper()
	img, err := imageio.FromFrame(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 80)
	require.NoError(t, err)
	return img
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestPredict_SendsMultipartFile(t *testing.T) {
	img := testImage(t)
	var gotReqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		gotReqID = r.Header.Get(RequestIDHeader)

		f, hdr, err := r.FormFile(FormField)
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, imageio.SnapshotName, hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		assert.Equal(t, img.Data, data)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"disease":"Leaf Blight","confidence":0.92,"alternatives":[{"disease":"Rust","probability":"5%"}]}`)
	})

	res, err := c.Predict(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "Leaf Blight", res.Disease)
	assert.Len(t, res.Alternatives, 1)
	assert.NotEmpty(t, gotReqID)
}

func TestPredict_NonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	_, err := c.Predict(context.Background(), testImage(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Error(), "model not loaded")
}

func TestPredict_StatusBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 300)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, body)
	})

	_, err := c.Predict(context.Background(), testImage(t))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, utf8.ValidString(se.Body), "body must stay valid UTF-8: %q", se.Body)
	assert.Less(t, len(se.Body), len(body))
	assert.True(t, strings.HasSuffix(se.Body, "..."))
}

func TestPredict_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"label":"wrong shape"}`)
	})

	_, err := c.Predict(context.Background(), testImage(t))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.Predict(context.Background(), testImage(t))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPredict_Canceled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The server only notices a client disconnect once the body is read.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := c.Predict(ctx, testImage(t))
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestPredict_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Predict(context.Background(), testImage(t))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestPredict_NoImageSendsNothing(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := c.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, imageio.ErrEmpty)
	assert.Zero(t, hits.Load())
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status)
}

func TestHealth_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Hello":"DermaAI"}`)
	})
	_, err := c.Health(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = c.Health(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
}

func TestNewClient_RejectsBadEndpoint(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://bad"} {
		_, err := NewClient(u)
		assert.Error(t, err, u)
	}
}
