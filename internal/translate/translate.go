// Package translate delegates text translation to an external provider,
// splitting oversized input into sequential chunks to respect the
// provider's request limits.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the public single-phrase translation endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// DefaultChunkSize is the per-request character budget.
const DefaultChunkSize = 4500

// Client calls the translation provider.
type Client struct {
	endpoint  string
	target    string
	chunkSize int
	httpc     *http.Client
	log       *slog.Logger
}

// NewClient creates a translation client. Empty endpoint/target and
// non-positive chunkSize fall back to defaults.
func NewClient(endpoint, target string, chunkSize int, log *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if target == "" {
		target = "ru"
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Client{
		endpoint:  endpoint,
		target:    target,
		chunkSize: chunkSize,
		httpc:     &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

// Translate renders text into the configured target language. Input over
// the chunk budget is split at line/space boundaries, translated
// sequentially, and rejoined with newlines. Provider failures come back
// as an error for the API layer to surface in-band.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := splitChunks(text, c.chunkSize)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		translated, err := c.translateChunk(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("translate: %w", err)
		}
		parts = append(parts, translated)
	}
	return strings.Join(parts, "\n"), nil
}

func (c *Client) translateChunk(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", c.target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return parseProviderResponse(body)
}

// parseProviderResponse unpacks the provider's nested-array payload:
// [[["translated","source",...],...],...].
func parseProviderResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return "", fmt.Errorf("unexpected provider payload")
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected provider payload")
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}
		b.WriteString(piece)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("provider returned no translation")
	}
	return b.String(), nil
}

// splitChunks breaks text into pieces of at most limit characters,
// preferring newline boundaries, then spaces, then a hard cut.
func splitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			cut := strings.LastIndex(line[:limit], " ")
			if cut <= 0 {
				cut = limit
			}
			flushInto(&chunks, &current, line[:cut], limit)
			line = strings.TrimLeft(line[cut:], " ")
		}
		flushInto(&chunks, &current, line, limit)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// flushInto appends piece to the current chunk, starting a new chunk when
// the addition would overflow the limit.
func flushInto(chunks *[]string, current *strings.Builder, piece string, limit int) {
	// +1 for the newline separator restored on append.
	if current.Len() > 0 && current.Len()+len(piece)+1 > limit {
		*chunks = append(*chunks, current.String())
		current.Reset()
	}
	if current.Len() > 0 {
		current.WriteString("\n")
	}
	current.WriteString(piece)
}
