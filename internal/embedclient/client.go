// Package embedclient provides an EmbeddingClient abstraction and an
// OpenAI-compatible HTTP implementation used to embed queries and
// documents for semantic ranking.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Client generates embedding vectors for text. Implementations must be
// safe for concurrent use.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// OpenAIClient calls an OpenAI-compatible embeddings endpoint.
type OpenAIClient struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithBaseURL overrides the default OpenAI API base URL, for
// OpenAI-compatible providers or local test servers.
func WithBaseURL(url string) OpenAIOption {
	return func(c *OpenAIClient) { c.baseURL = url }
}

// WithModel overrides the default embedding model.
func WithModel(model string, dimensions int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.model = model
		c.dimensions = dimensions
	}
}

// NewOpenAIClient creates an OpenAI embeddings client using
// text-embedding-3-small (1536 dimensions) by default.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:     apiKey,
		model:      "text-embedding-3-small",
		dimensions: 1536,
		baseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embeddingRequest struct {
	Input          interface{} `json:"input"`
	Model          string      `json:"model"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Dimensions returns the vector width produced by this client's model.
func (c *OpenAIClient) Dimensions() int { return c.dimensions }

// Embed generates a single embedding vector.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedclient: no embeddings returned")
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts in one request.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedclient: no texts provided")
	}

	body, err := json.Marshal(embeddingRequest{
		Input:          texts,
		Model:          c.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("embedclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedclient: API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embedclient: decode response: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			continue
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// HashStub is a deterministic, dependency-free Client used in tests and in
// offline development: it hashes text into a fixed-width pseudo-embedding
// so cosine similarity behaves consistently without calling out to a real
// provider.
type HashStub struct {
	dims int
}

// NewHashStub creates a deterministic stub embedding client.
func NewHashStub(dims int) *HashStub {
	if dims <= 0 {
		dims = 64
	}
	return &HashStub{dims: dims}
}

func (h *HashStub) Dimensions() int { return h.dims }

func (h *HashStub) Embed(_ context.Context, text string) ([]float32, error) {
	return hashEmbed(text, h.dims), nil
}

func (h *HashStub) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, h.dims)
	}
	return out, nil
}

// hashEmbed derives a deterministic unit-length vector from text: one
// rolling FNV-like hash runs over the runes, and each rune adds 1 to the
// dimension the hash selects at that point, so texts sharing a prefix
// share those counts. Empty text yields the zero vector.
func hashEmbed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	var h uint32 = 2166136261
	for _, r := range text {
		h ^= uint32(r)
		h *= 16777619
		vec[int(h)%dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
