// ABOUTME: Minimal Telegram Bot API client for getUpdates and sendMessage
// ABOUTME: getUpdates uses server-side long polling driven by the caller's cursor

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultAPIBase is the public Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// Chat identifies the peer a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// IncomingMessage is the message part of an update. Updates that carry no
// message (edits, callbacks, etc.) have a nil Message.
type IncomingMessage struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Update is one entry from the getUpdates feed.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// APIError is a Bot API response with ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Client talks to the Bot API over HTTP.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the given bot token. apiBase may be empty for the
// public endpoint; tests point it at a local server.
func New(apiBase, token string, logger *slog.Logger) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiBase: apiBase,
		token:   token,
		// No overall client timeout: getUpdates blocks server-side for the
		// long-poll window. Per-call deadlines come from the context.
		http:   &http.Client{},
		logger: logger.With("component", "telegram"),
	}
}

// apiResponse is the common Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// GetUpdates fetches the next batch of updates at or after offset, blocking
// server-side up to timeout when none are pending. An empty batch is a normal
// result, not an error.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))

	raw, err := c.call(ctx, http.MethodGet, "getUpdates?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	return updates, nil
}

// SendMessage posts a text message to a chat. Best effort: the caller gets the
// transport or API error but no delivery guarantee beyond that.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	_, err := c.call(ctx, http.MethodPost, "sendMessage", payload)
	return err
}

// call performs one Bot API request and unwraps the response envelope.
func (c *Client) call(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, endpoint)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	if !envelope.OK {
		return nil, &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	return envelope.Result, nil
}
