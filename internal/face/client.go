package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator produces a face embedding from raw image bytes. The embedding
// model is an external black box; implementations must surface their own
// failures rather than fabricating a vector.
type Generator interface {
	Embed(ctx context.Context, image []byte) ([]float64, error)
}

// Client calls the embedding microservice over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second // embedding inference can take a while
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Embed posts the image to the embedding service and returns the vector.
func (c *Client) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image bytes required")
	}

	body, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service error %s: %s", resp.Status, string(respBody))
	}

	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("no face detected in image")
	}
	return out.Embedding, nil
}

// Static is a deterministic generator for dev and tests: every image maps
// to the same fixed vector.
type Static struct {
	Vector []float64
}

// Embed returns the configured vector regardless of input.
func (s *Static) Embed(_ context.Context, _ []byte) ([]float64, error) {
	if len(s.Vector) > 0 {
		return s.Vector, nil
	}
	v := make([]float64, EmbeddingDim)
	for i := range v {
		v[i] = 0.1
	}
	return v, nil
}
