// Package api is the REST client for the procurement-plan backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Config locates the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client issues one HTTP request per call; failures are never retried.
type Client struct {
	cfg      Config
	http     *http.Client
	tokens   TokenSource
	observer Observer
	validate *validator.Validate
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for cfg.BaseURL.
func New(cfg Config, tokens TokenSource, observer Observer, opts ...Option) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		tokens:   tokens,
		observer: observer,
		validate: validator.New(),
	}
	c.validate.RegisterTagNameFunc(jsonFieldName)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// Validate checks payload against its struct tags without sending it.
func (c *Client) Validate(payload any) error {
	if err := c.validate.Struct(payload); err != nil {
		return newValidationError(err)
	}
	return nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// rawOK accepts a spreadsheet body on any status.
	rawOK bool
}

type response struct {
	status      int
	contentType string
	filename    string
	body        []byte
}

const spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (r *response) isSpreadsheet() bool {
	return strings.HasPrefix(r.contentType, spreadsheetType) || strings.HasPrefix(r.contentType, "application/octet-stream")
}

func (c *Client) do(ctx context.Context, r request) (resp *response, err error) {
	start := time.Now()
	requestID := uuid.NewString()
	event := CallEvent{Method: r.method, Path: r.path, RequestID: requestID}
	defer func() {
		event.Latency = time.Since(start)
		event.ErrorCode = errorCode(err)
		c.observer.OnCallComplete(event)
	}()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	u := c.cfg.BaseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if tok := c.tokens.Token(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer httpResp.Body.Close()
	event.Status = httpResp.StatusCode

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	resp = &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		filename:    attachmentName(httpResp.Header.Get("Content-Disposition")),
		body:        body,
	}
	if r.rawOK && resp.isSpreadsheet() {
		return resp, nil
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, parseAPIError(httpResp.StatusCode, body, requestID)
	}
	return resp, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return err
}

// doJSON validates and sends in (when non-nil) and decodes the response
// into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	r := request{method: method, path: path, query: query}
	if in != nil {
		if err := c.Validate(in); err != nil {
			return err
		}
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	return nil
}

// attachmentName is the file name of a Content-Disposition header with any
// directory part removed.
func attachmentName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return ""
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
