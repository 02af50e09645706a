package team

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rapantix/internal/types"
)

var (
	ErrSessionUnavailable = errors.New("session service unavailable")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFull        = errors.New("session is full")
	ErrNotJoined          = errors.New("join session first")
	ErrRejected           = errors.New("request rejected")
)

// Client talks to the session service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
	log        *slog.Logger
}

// NewClient creates a Client for the service at baseURL. An empty baseURL
// yields a client whose every call fails with ErrSessionUnavailable.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryDelay: 500 * time.Millisecond,
		log:        logger.With("adapter", "session"),
	}
}

func (c *Client) Create(ctx context.Context, clientID string, minStreams int, song types.Song) (types.TeamState, error) {
	var out types.TeamState
	req := types.CreateSessionRequest{ClientID: clientID, MinStreams: minStreams, Song: song}
	err := c.do(ctx, http.MethodPost, "/team/session/create", req, &out, false)
	return out, err
}

func (c *Client) Join(ctx context.Context, code, clientID string) (types.TeamState, error) {
	var out types.TeamState
	req := types.JoinSessionRequest{Code: code, ClientID: clientID}
	err := c.do(ctx, http.MethodPost, "/team/session/join", req, &out, true)
	return out, err
}

func (c *Client) Guess(ctx context.Context, code, clientID, word string) (types.GuessResponse, error) {
	var out types.GuessResponse
	req := types.GuessRequest{Code: code, ClientID: clientID, Word: word}
	err := c.do(ctx, http.MethodPost, "/team/session/guess", req, &out, false)
	return out, err
}

func (c *Client) GuessTitle(ctx context.Context, code, clientID, title string) (types.TitleGuessResponse, error) {
	var out types.TitleGuessResponse
	req := types.TitleGuessRequest{Code: code, ClientID: clientID, Title: title}
	err := c.do(ctx, http.MethodPost, "/team/session/title", req, &out, false)
	return out, err
}

// State fetches the snapshot of session code as seen by clientID.
func (c *Client) State(ctx context.Context, code, clientID string) (types.TeamState, error) {
	var out types.TeamState
	path := "/team/session/" + url.PathEscape(code) + "/state?clientId=" + url.QueryEscape(clientID)
	err := c.do(ctx, http.MethodGet, path, nil, &out, false)
	return out, err
}

// Fetcher binds State to one session for a Poller.
func (c *Client) Fetcher(code, clientID string) Fetcher {
	return func(ctx context.Context) (types.TeamState, error) {
		return c.State(ctx, code, clientID)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, retry bool) error {
	if c.baseURL == "" {
		return ErrSessionUnavailable
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("session: encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload)
	if retry && ctx.Err() == nil && (err != nil || resp.StatusCode >= 500) {
		reason := "network error"
		if err == nil {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
			resp.Body.Close()
		}
		c.log.WarnContext(ctx, "session retry", slog.String("path", path), slog.String("reason", reason))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrSessionUnavailable, ctx.Err())
		case <-time.After(c.retryDelay):
		}
		resp, err = c.send(ctx, method, path, payload)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrSessionUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("session: decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func statusError(status int, data []byte) error {
	var msg types.ErrorResponse
	_ = json.Unmarshal(data, &msg)
	detail := msg.Error
	if detail == "" {
		detail = http.StatusText(status)
	}

	var base error
	switch {
	case status == http.StatusNotFound:
		base = ErrSessionNotFound
	case status == http.StatusConflict:
		base = ErrSessionFull
	case status == http.StatusForbidden:
		base = ErrNotJoined
	case status >= 500:
		base = ErrSessionUnavailable
	default:
		base = ErrRejected
	}
	return fmt.Errorf("%w: %s", base, detail)
}
