// Package predict is the HTTP client for the prediction endpoint. A request
// is a single multipart POST with no extra headers; any 2xx reply whose body
// parses as a JSON value other than null counts as success.
package predict

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

	"github.com/goliatone/go-predictform/pkg/formdata"
)

// DefaultPath is the endpoint the form posts to.
const DefaultPath = "/predict"

// maxErrorBody bounds how much of a failed response is kept on StatusError.
const maxErrorBody = 512

var (
	// ErrStatus marks responses outside the 2xx range.
	ErrStatus = errors.New("predict: unexpected status")
	// ErrDecode marks bodies that are not JSON, or are JSON null.
	ErrDecode = errors.New("predict: decode response")
)

// StatusError carries the status and a body excerpt of a failed response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("predict: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("predict: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport. Nil keeps http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL sets the URL the endpoint path resolves against.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(base)
	}
}

// WithPath overrides the endpoint path.
func WithPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.path = trimmed
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client posts form payloads to the prediction endpoint. It sets no headers
// beyond the multipart content type and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	path       string
	logger     *slog.Logger
}

// New constructs a Client with defaults applied.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		path:       DefaultPath,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() (string, error) {
	ref, err := url.Parse(c.path)
	if err != nil {
		return "", fmt.Errorf("predict: parse path: %w", err)
	}
	if c.baseURL == "" {
		return ref.String(), nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("predict: parse base url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// WithBase returns a copy of the client resolving against base.
func (c *Client) WithBase(base string) *Client {
	clone := *c
	clone.baseURL = strings.TrimSpace(base)
	return &clone
}

// Predict sends values as multipart/form-data and decodes the JSON reply.
func (c *Client) Predict(ctx context.Context, values formdata.Values) (Response, error) {
	endpoint, err := c.Endpoint()
	if err != nil {
		return Response{}, err
	}
	body, contentType, err := formdata.Encode(values)
	if err != nil {
		return Response{}, fmt.Errorf("predict: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("predict: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.DebugContext(ctx, "posting prediction request",
		"url", endpoint,
		"fields", values.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("predict: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Response{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	return Decode(resp.Body)
}

// utf8BOM is skipped ahead of the body, as browsers do when reading JSON.
var utf8BOM = []byte("\xef\xbb\xbf")

// Decode reads a prediction response. The whole body must be one JSON
// value. Objects yield their price member; other non-null values carry no
// price. Null fails since it has no members to read.
func Decode(r io.Reader) (Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read body: %v", ErrDecode, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !json.Valid(data) {
		return Response{}, fmt.Errorf("%w: body is not valid JSON", ErrDecode)
	}

	switch trimmed := bytes.TrimSpace(data); trimmed[0] {
	case 'n':
		return Response{}, fmt.Errorf("%w: body is null", ErrDecode)
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return Response{PredictedPrice: raw[PriceField]}, nil
	default:
		return Response{}, nil
	}
}
