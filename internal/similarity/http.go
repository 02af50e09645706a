package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rapantix/internal/types"
)

// HTTPScorer queries a word-vector service exposing POST /similar.
type HTTPScorer struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPScorer creates a scorer for the service at baseURL.
func NewHTTPScorer(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPScorer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPScorer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "similarity"),
	}
}

func (s *HTTPScorer) Name() string { return "http" }

// Similar returns the nearest terms to word. Any transport or upstream
// failure is reported as ErrUnavailable.
func (s *HTTPScorer) Similar(ctx context.Context, word string, topN int) ([]types.SimilarWord, error) {
	payload, err := json.Marshal(types.SimilarRequest{Word: word, TopN: ClampTopN(topN)})
	if err != nil {
		return nil, fmt.Errorf("similarity: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/similar", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("similarity: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	s.log.DebugContext(ctx, "similarity request", slog.String("word", word))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var out types.SimilarResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrUnavailable, err)
	}

	s.log.DebugContext(ctx, "similarity response",
		slog.String("word", word),
		slog.Int("results", len(out.Results)),
	)
	return out.Results, nil
}
