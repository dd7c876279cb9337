// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/suggest"
)

// Service endpoints, relative to the client base URL.
const (
	PathRemoveBackground = "/background/remove"
	PathArrange          = "/ai/arrange"
	PathCompliance       = "/compliance/check"
)

// Client defaults.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 2
	DefaultBackoff = 200 * time.Millisecond

	maxResponseBytes = 8 << 20
)

// Client implements all three services over HTTP.
//
// Client is safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
}

var (
	_ BackgroundRemover = (*Client)(nil)
	_ LayoutSuggester   = (*Client)(nil)
	_ ComplianceChecker = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithCallTimeout sets the per-attempt timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.timeout = d }
}

// WithRetries sets the retry budget and initial backoff.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(cl *Client) {
		cl.retries = n
		cl.backoff = backoff
	}
}

// NewClient creates a client for the services rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type removeResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// RemoveBackground uploads up as multipart field "file". Any non-empty
// URL in the answer is returned, even when the service reports that it
// fell back to the unprocessed upload. The upload is never retried, since
// the service stores every file it receives.
func (c *Client) RemoveBackground(ctx context.Context, up Upload) (string, error) {
	body, contentType, err := encodeUpload(up)
	if err != nil {
		return "", err
	}

	resp, err := c.call(ctx, PathRemoveBackground, contentType, body, 0)
	if err != nil {
		return "", err
	}

	var r removeResponse
	if err := json.Unmarshal(resp, &r); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformed, PathRemoveBackground, err)
	}
	if r.URL == "" {
		return "", fmt.Errorf("collab: background removal failed: %s", r.Error)
	}
	if !r.Success {
		adstudio.Logger().WarnContext(ctx, "collab: background kept, service fell back to original",
			"file", up.Name, "reason", r.Error)
	}
	return r.URL, nil
}

type arrangeRequest struct {
	Elements []canvas.Element `json:"elements"`
	Canvas   canvas.Size      `json:"canvas"`
}

type arrangeResponse struct {
	Suggestions json.RawMessage `json:"suggestions"`
}

// Suggest posts the scene and returns the variants. A response whose
// "suggestions" field is not an array yields ErrMalformed.
func (c *Client) Suggest(ctx context.Context, elems []canvas.Element, size canvas.Size) ([]suggest.Variant, error) {
	if elems == nil {
		elems = []canvas.Element{}
	}
	payload, err := json.Marshal(arrangeRequest{Elements: elems, Canvas: size})
	if err != nil {
		return nil, fmt.Errorf("collab: encode %s: %w", PathArrange, err)
	}

	resp, err := c.call(ctx, PathArrange, "application/json", payload, c.retries)
	if err != nil {
		return nil, err
	}

	var r arrangeResponse
	if err := json.Unmarshal(resp, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, PathArrange, err)
	}
	raw := bytes.TrimSpace(r.Suggestions)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: %s: suggestions is not a list", ErrMalformed, PathArrange)
	}
	var variants []suggest.Variant
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, PathArrange, err)
	}
	return variants, nil
}

type complianceRequest struct {
	Text string `json:"text"`
}

type complianceResponse struct {
	OK     bool     `json:"ok"`
	Issues []string `json:"issues"`
}

// Check posts text and returns the reported issues.
func (c *Client) Check(ctx context.Context, text string) ([]string, error) {
	payload, err := json.Marshal(complianceRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("collab: encode %s: %w", PathCompliance, err)
	}

	resp, err := c.call(ctx, PathCompliance, "application/json", payload, c.retries)
	if err != nil {
		return nil, err
	}

	var r complianceResponse
	if err := json.Unmarshal(resp, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, PathCompliance, err)
	}
	return r.Issues, nil
}

// call POSTs payload to endpoint through the timeout and retry chain,
// retrying at most retries times.
func (c *Client) call(ctx context.Context, endpoint, contentType string, payload []byte, retries int) ([]byte, error) {
	h := Chain(c.post(endpoint, contentType),
		WithRetry(retries, c.backoff, endpoint),
		WithTimeout(c.timeout),
	)
	return h(ctx, payload)
}

func (c *Client) post(endpoint, contentType string) Handler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("collab: %s: %w", endpoint, err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("collab: %s: %w", endpoint, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("collab: %s: read body: %w", endpoint, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: truncate(string(body), 256)}
		}
		return body, nil
	}
}

func encodeUpload(up Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	name := up.Name
	if name == "" {
		name = "upload"
	}
	ct := up.ContentType
	if ct == "" {
		ct = http.DetectContentType(up.Data)
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	hdr.Set("Content-Type", ct)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("collab: encode upload: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", fmt.Errorf("collab: encode upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("collab: encode upload: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
