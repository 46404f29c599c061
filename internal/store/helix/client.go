package helix

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
	"time"

	"clocktower/internal/config"
	"clocktower/internal/pkg/circuit"
	"clocktower/internal/pkg/text"
	"clocktower/internal/store"

	"github.com/tidwall/gjson"
)

const configurationsPath = "/extensions/configurations"

// Client talks to the Twitch Extensions configuration service. The host owns
// persistence; this type only reads and writes segments.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	signer        *Signer
	breaker       *circuit.Breaker
	clientID      string
	extensionID   string
	broadcasterID string
}

var _ store.ConfigStore = (*Client)(nil)

// NewClient constructs a Helix client from configuration.
func NewClient(cfg config.HelixConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.APIURL)
	if raw == "" {
		return nil, fmt.Errorf("helix.api_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse helix.api_url failed: %w", err)
	}
	signer, err := NewSigner(cfg.ExtensionSecret, cfg.OwnerID)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       parsed,
		httpClient:    &http.Client{Timeout: timeout},
		signer:        signer,
		breaker:       circuit.New("helix", 5, 30*time.Second),
		clientID:      strings.TrimSpace(cfg.ClientID),
		extensionID:   strings.TrimSpace(cfg.ExtensionID),
		broadcasterID: strings.TrimSpace(cfg.BroadcasterID),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Signer exposes the token signer, shared with the HTTP layer for verifying
// frontend tokens.
func (c *Client) Signer() *Signer {
	return c.signer
}

type setPayload struct {
	ExtensionID   string `json:"extension_id"`
	Segment       string `json:"segment"`
	BroadcasterID string `json:"broadcaster_id,omitempty"`
	Version       string `json:"version"`
	Content       string `json:"content"`
}

func (c *Client) Set(ctx context.Context, seg store.Segment) error {
	payload := setPayload{
		ExtensionID: c.extensionID,
		Segment:     seg.Scope,
		Version:     seg.Version,
		Content:     seg.Content,
	}
	if seg.Scope != "global" {
		payload.BroadcasterID = c.broadcasterID
	}
	_, err := c.doRequest(ctx, http.MethodPut, c.segmentQuery(""), payload)
	return err
}

func (c *Client) Get(ctx context.Context, scope string) (store.Segment, bool, error) {
	body, err := c.doRequest(ctx, http.MethodGet, c.segmentQuery(scope), nil)
	if err != nil {
		return store.Segment{}, false, err
	}
	if !gjson.ValidBytes(body) {
		return store.Segment{}, false, fmt.Errorf("helix: invalid configuration response: %w", store.ErrUnavailable)
	}
	var found store.Segment
	ok := false
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		if item.Get("segment").String() != scope {
			return true
		}
		content := item.Get("content")
		if !content.Exists() || content.String() == "" {
			return false
		}
		found = store.Segment{
			Scope:   scope,
			Version: item.Get("version").String(),
			Content: content.String(),
		}
		ok = true
		return false
	})
	return found, ok, nil
}

// Ping succeeds once the service answers a read for the broadcaster segment.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.Get(ctx, store.ScopeBroadcaster)
	return err
}

func (c *Client) segmentQuery(scope string) url.Values {
	if scope == "" {
		return nil
	}
	q := url.Values{}
	q.Set("extension_id", c.extensionID)
	q.Add("segment", scope)
	if scope != "global" && c.broadcasterID != "" {
		q.Set("broadcaster_id", c.broadcasterID)
	}
	return q
}

// serverError is a 5xx/429 answer or a transport failure; only these trip
// the breaker.
type serverError struct{ err error }

func (e *serverError) Error() string { return e.err.Error() }
func (e *serverError) Unwrap() error { return e.err }

func (c *Client) doRequest(ctx context.Context, method string, query url.Values, payload any) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("helix client not initialized: %w", store.ErrUnavailable)
	}
	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.send(ctx, method, query, payload)
		return err
	}, func(err error) bool {
		var se *serverError
		return errors.As(err, &se)
	})
	if errors.Is(err, circuit.ErrOpen) {
		return nil, fmt.Errorf("helix paused after repeated failures: %w", store.ErrUnavailable)
	}
	return data, err
}

func (c *Client) send(ctx context.Context, method string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(configurationsPath)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode helix request failed: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build helix request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.signer.ExternalToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &serverError{fmt.Errorf("call helix failed: %w: %w", store.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &serverError{fmt.Errorf("read helix response failed: %w: %w", store.ErrUnavailable, err)}
	}
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(gjson.GetBytes(data, "message").String())
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		var err error
		if msg == "" {
			err = fmt.Errorf("helix returned %s: %w", resp.Status, store.ErrUnavailable)
		} else {
			err = fmt.Errorf("helix returned %s: %s: %w", resp.Status, text.Truncate(msg, 256), store.ErrUnavailable)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &serverError{err}
		}
		return nil, err
	}
	return data, nil
}
