package api

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

	"github.com/google/uuid"

	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
	"github.com/PerezAngel/iep-bedrock-studio/internal/log"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// Sentinel errors for identity-related HTTP statuses. The session layer
// maps these onto the user-facing error taxonomy; everything else arrives
// as an httpError or a backend ok:false message.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// TokenSource supplies the current bearer token, or "" when the caller
// has no session.
type TokenSource func() string

// Client talks to the content and image backends. It is a thin wire
// layer: it parses envelopes and surfaces backend failure messages, but
// holds no workflow state of its own.
type Client struct {
	base        string
	contentBase string
	userEmail   string
	http        *http.Client
	token       TokenSource
	logger      *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource installs a bearer-token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a backend client from API configuration.
func New(cfg config.APIConfig, opts ...Option) *Client {
	c := &Client{
		base:        strings.TrimRight(cfg.Base, "/"),
		contentBase: strings.TrimRight(cfg.ContentBase, "/"),
		userEmail:   cfg.UserEmail,
		http:        &http.Client{Timeout: cfg.Timeout},
		logger:      log.DefaultLogger().With("component", "api"),
	}
	if c.contentBase == "" {
		c.contentBase = c.base
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// httpError carries a non-2xx response with the best message the body
// offered.
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP_%d", e.Status)
	}
	return fmt.Sprintf("HTTP_%d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status behind err, or 0 when err did not
// originate from a non-2xx response.
func StatusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// errorBody is the loosest possible read of a failure payload; bodies may
// carry any of these fields, or not be JSON at all.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func (b errorBody) best() string {
	switch {
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	case b.Detail != "":
		return b.Detail
	default:
		return ""
	}
}

// doJSON performs a request and decodes a 2xx JSON body into out. Non-2xx
// responses become an *httpError with a message extracted from the body's
// message/error/detail fields, falling back to truncated raw text.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Cache-Control", "no-store")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		msg := ""
		if json.Unmarshal(raw, &eb) == nil {
			msg = eb.best()
		}
		if msg == "" && len(raw) > 0 {
			msg = string(raw)
			if len(msg) > 300 {
				msg = msg[:300]
			}
		}
		c.logger.Debug("request failed", "method", method, "url", rawURL, "status", resp.StatusCode)
		return &httpError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// Whoami resolves the caller's group memberships via GET /me.
// 401 maps to ErrUnauthorized, 403 to ErrForbidden.
func (c *Client) Whoami(ctx context.Context) ([]string, error) {
	var env whoamiEnvelope
	err := c.doJSON(ctx, http.MethodGet, c.base+"/me", nil, &env)
	if err != nil {
		switch StatusOf(err) {
		case http.StatusUnauthorized:
			return nil, ErrUnauthorized
		case http.StatusForbidden:
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !env.OK {
		return nil, errors.New("whoami reported not ok")
	}
	return env.Groups, nil
}

// LoadContent fetches a content record. Versions and the latest status
// arrive parsed together so callers can install them atomically.
func (c *Client) LoadContent(ctx context.Context, contentID string) (*workflow.Record, error) {
	var env contentEnvelope
	target := c.contentBase + "/content/" + url.PathEscape(contentID)
	if err := c.doJSON(ctx, http.MethodGet, target, nil, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		if env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, errors.New("load_failed")
	}

	status := workflow.StatusDraft
	if env.Latest.Status != "" {
		parsed, err := workflow.ParseStatus(env.Latest.Status)
		if err != nil {
			return nil, fmt.Errorf("latest status: %w", err)
		}
		status = parsed
	}

	return &workflow.Record{
		ContentID: contentID,
		Status:    status,
		Versions:  env.Versions,
	}, nil
}

// Generate invokes a generation action against a new or existing record.
func (c *Client) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	body := generateRequest{
		Action:    string(params.Action),
		InputText: params.InputText,
		UserEmail: params.UserEmail,
		ContentID: params.ContentID,
	}
	if body.UserEmail == "" {
		body.UserEmail = c.userEmail
	}

	var env generateEnvelope
	if err := c.doJSON(ctx, http.MethodPost, c.contentBase+"/content/generate", body, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "generate_failed"
		}
		if env.Detail != "" {
			msg = strings.TrimSpace(msg + ": " + env.Detail)
		}
		return nil, errors.New(msg)
	}

	status := workflow.StatusDraft
	if env.Status != "" {
		if parsed, err := workflow.ParseStatus(env.Status); err == nil {
			status = parsed
		}
	}

	return &GenerateResult{
		ContentID: env.ContentID,
		Text:      env.Text,
		Status:    status,
	}, nil
}

// SetStatus requests a workflow transition and returns the status the
// backend confirmed.
func (c *Client) SetStatus(ctx context.Context, contentID string, next workflow.Status) (workflow.Status, error) {
	var env statusEnvelope
	target := c.contentBase + "/content/" + url.PathEscape(contentID) + "/status"
	if err := c.doJSON(ctx, http.MethodPost, target, statusRequest{Status: string(next)}, &env); err != nil {
		return "", err
	}
	if !env.OK {
		if env.Error != "" {
			return "", errors.New(env.Error)
		}
		return "", errors.New("status_failed")
	}

	confirmed, err := workflow.ParseStatus(env.Status)
	if err != nil {
		return "", fmt.Errorf("confirmed status: %w", err)
	}
	return confirmed, nil
}

// ListByStatus fetches one board bucket.
func (c *Client) ListByStatus(ctx context.Context, status workflow.Status) ([]workflow.BoardEntry, error) {
	var env byStatusEnvelope
	target := c.base + "/content/by-status?status=" + url.QueryEscape(string(status))
	if err := c.doJSON(ctx, http.MethodGet, target, nil, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		if env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, errors.New("by_status_failed")
	}
	if env.Items == nil {
		return []workflow.BoardEntry{}, nil
	}
	return env.Items, nil
}

// GenerateImage asks the image backend for a rendering and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string, style ImageStyle) (string, error) {
	var env imageGenerateEnvelope
	body := imageGenerateRequest{Prompt: prompt, Style: string(style)}
	if err := c.doJSON(ctx, http.MethodPost, c.base+"/image/generate", body, &env); err != nil {
		return "", err
	}
	if !env.OK {
		for _, msg := range []string{env.Detail, env.Message, env.Error} {
			if msg != "" {
				return "", errors.New(msg)
			}
		}
		return "", errors.New("generate_failed")
	}
	return env.URL, nil
}

// RecentImages fetches the gallery. Failures are the caller's to ignore.
func (c *Client) RecentImages(ctx context.Context) ([]GalleryItem, error) {
	var env recentImagesEnvelope
	if err := c.doJSON(ctx, http.MethodGet, c.base+"/image/recent", nil, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, errors.New("recent_images_failed")
	}
	if env.Images == nil {
		return []GalleryItem{}, nil
	}
	return env.Images, nil
}
