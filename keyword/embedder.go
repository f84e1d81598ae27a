package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Embedder turns texts into fixed-size vectors. Vectors are returned in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint, as served
// by text-embeddings-inference, vLLM, Ollama and similar servers.
type HTTPEmbedder struct {
	url    string
	model  string
	client *http.Client
}

func NewHTTPEmbedder(url, model string, timeout time.Duration) *HTTPEmbedder {
	return &HTTPEmbedder{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding server returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d inputs", len(decoded.Data), len(texts))
	}

	sort.Slice(decoded.Data, func(a, b int) bool { return decoded.Data[a].Index < decoded.Data[b].Index })
	vectors := make([][]float32, len(texts))
	for i, d := range decoded.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// HashingEmbedder is an offline embedder that hashes word and character
// trigram features into a fixed number of signed buckets. It needs no model
// files and is deterministic, which makes it suitable for development.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	return &HashingEmbedder{dims: dims}
}

func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, token := range tokenize(text) {
		e.add(vec, "w:"+token, 1)
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vec, "c:"+string(runes[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashingEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(e.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

// CachedEmbedder memoizes vectors per text for a limited time.
type CachedEmbedder struct {
	next  Embedder
	cache *ttlcache.Cache[string, []float32]
}

func NewCachedEmbedder(next Embedder, ttl time.Duration, capacity uint64) *CachedEmbedder {
	cache := ttlcache.New[string, []float32](
		ttlcache.WithTTL[string, []float32](ttl),
		ttlcache.WithCapacity[string, []float32](capacity),
	)
	return &CachedEmbedder{next: next, cache: cache}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if item := e.cache.Get(text); item != nil {
			vectors[i] = item.Value()
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	fetched, err := e.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range fetched {
		vectors[missingIdx[j]] = vec
		e.cache.Set(missing[j], vec, ttlcache.DefaultTTL)
	}
	return vectors, nil
}

// Len reports the number of cached vectors.
func (e *CachedEmbedder) Len() int {
	return e.cache.Len()
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
