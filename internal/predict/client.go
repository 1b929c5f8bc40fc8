// Package predict is the client for the remote classification service:
// POST /predict with a multipart "file" field, and GET /health.
package predict

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"dermascan/internal/imageio"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single prediction request.
	DefaultTimeout = 30 * time.Second
	// FormField is the multipart field carrying the image.
	FormField = "file"
	// RequestIDHeader carries the per-request id, also logged.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Predictor classifies one image. Implemented by Client and by test fakes.
type Predictor interface {
	Predict(ctx context.Context, img *imageio.Image) (*Result, error)
}

// Client talks to the prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
	logger     *zap.Logger
}

var _ Predictor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTracer records a span per request.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service rooted at baseURL
// (e.g. "http://127.0.0.1:8000").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		tracer:     noop.NewTracerProvider().Tracer(""),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Predict uploads img and returns the decoded prediction. Errors wrap one
// of ErrStatus, ErrMalformed, ErrTimeout, ErrCanceled or ErrTransport.
func (c *Client) Predict(ctx context.Context, img *imageio.Image) (*Result, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("predict: %w", imageio.ErrEmpty)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("dermascan.file.name", img.Name),
			attribute.String("dermascan.file.mime", img.MIMEType),
			attribute.Int("dermascan.file.bytes", len(img.Data)),
		))
	defer span.End()

	body, contentType, err := multipartBody(img)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reqID := uuid.NewString()
	log := c.logger.With(zap.String("request_id", reqID), zap.String("file", img.Name))
	start := time.Now()

	respBody, err := c.do(ctx, http.MethodPost, "/predict", body, contentType, reqID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("predict failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}

	result, err := DecodeResult(respBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("predict returned malformed body", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("dermascan.prediction.disease", result.Disease),
		attribute.Float64("dermascan.prediction.confidence", result.Confidence),
		attribute.Int("dermascan.prediction.alternatives", len(result.Alternatives)),
	)
	log.Info("predict ok",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("disease", result.Disease),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

// Health queries GET /health and returns the reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, "/health", nil, "", uuid.NewString())
	if err != nil {
		return "", err
	}
	var h healthResponse
	if err := jsonDecode(body, &h); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Status == "" {
		return "", fmt.Errorf("%w: missing status", ErrMalformed)
	}
	return h.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, reqID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(truncate(string(data), 200))}
	}
	return data, nil
}

func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody builds the form. multipart.Writer.CreateFormFile would
// force application/octet-stream, so the part header is written by hand to
// keep the image's MIME type.
func multipartBody(img *imageio.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FormField, quoteEscaper.Replace(img.Name)))
	ct := img.MIMEType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// truncate cuts s to at most n columns without splitting a rune.
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "...")
}
