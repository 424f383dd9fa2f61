package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/models"
)

const (
	navigatePath    = "/api/v1/media/navigate"
	maxErrorSnippet = 256
	maxItemBody     = 1 << 20
)

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// HTTPClient talks to the backend's JSON navigation endpoint.
type HTTPClient struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger zerolog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the backend at baseURL.
func NewHTTPClient(baseURL string, opts HTTPOptions) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", logging.RedactURL(baseURL))
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPClient{
		base:   base,
		token:  opts.Token,
		http:   hc,
		logger: logging.Component("backend.http"),
	}, nil
}

// Navigate implements Navigator.
func (c *HTTPClient) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u := *c.base
	u.Path = c.base.Path + navigatePath
	q := url.Values{}
	q.Set("selector", string(req.Selector))
	if req.Key != "" {
		q.Set("key", req.Key)
	}
	if !req.Timestamp.IsZero() {
		q.Set("timestamp", models.FormatTimestamp(req.Timestamp))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, logging.Redact(err.Error()))
	}
	defer resp.Body.Close()

	c.logger.Trace().
		Str("selector", string(req.Selector)).
		Str("key", req.Key).
		Int("status", resp.StatusCode).
		Msg("navigate")

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxItemBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var item models.WireItem
	if err := sonic.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if item.Key == "" {
		return nil, nil
	}
	return &item, nil
}

// ContentURL returns the display URL for a content reference.
func (c *HTTPClient) ContentURL(contentRef string) string {
	if contentRef == "" {
		return ""
	}
	u := *c.base
	u.Path = c.base.Path + "/api/v1/media/" + contentRef + "/thumbnail"
	u.RawPath = c.base.EscapedPath() + "/api/v1/media/" + url.PathEscape(contentRef) + "/thumbnail"
	u.RawQuery = ""
	return u.String()
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}
