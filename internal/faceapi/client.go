package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrProviderTimeout is returned when the inference sidecar does not answer
// within the configured deadline. Callers treat it as a fault, not an
// outcome.
var ErrProviderTimeout = errors.New("face provider timed out")

// EmbedResult is a detected face: a fixed-length normalized embedding plus
// the detector's confidence.
type EmbedResult struct {
	Embedding []float32
	DetScore  float64
}

// Client talks to the face inference sidecar (embedding model + landmark
// liveness heuristic) over HTTP. It is constructed once at startup and
// injected wherever recognition or enrollment needs it.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient validates the sidecar base URL and returns a Client.
func NewClient(baseURL string) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid face API URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid face API URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid face API URL: missing host")
	}
	return &Client{
		baseURL: parsed,
		http:    &http.Client{},
	}, nil
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	DetScore  float64   `json:"det_score"`
}

// Embed sends raw image bytes to the sidecar and returns the best detected
// face. A nil result with nil error means no face was found — that is an
// expected answer, not an error.
func (c *Client) Embed(ctx context.Context, image []byte) (*EmbedResult, error) {
	var out embedResponse
	if err := c.post(ctx, "/v1/embed", image, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, nil
	}
	return &EmbedResult{Embedding: out.Embedding, DetScore: out.DetScore}, nil
}

type livenessResponse struct {
	Live bool `json:"live"`
}

// CheckLiveness runs the sidecar's geometric plausibility heuristic on the
// image. It is a crude photo/replay filter, not a security boundary.
func (c *Client) CheckLiveness(ctx context.Context, image []byte) (bool, error) {
	var out livenessResponse
	if err := c.post(ctx, "/v1/liveness", image, &out); err != nil {
		return false, err
	}
	return out.Live, nil
}

func (c *Client) post(ctx context.Context, path string, image []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrProviderTimeout
		}
		return fmt.Errorf("face API %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("face API %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("face API %s: decode response: %w", path, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
