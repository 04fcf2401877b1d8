package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 4 << 20

// Client talks to the identity service at BaseURL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client with a bounded request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Raw is a fully read response from Send.
type Raw struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Send performs method on path with an optional bearer token and returns the
// response whatever its status. Only transport failures produce an error.
func (c *Client) Send(
	ctx context.Context,
	method, path string,
	body []byte,
	header http.Header,
	bearer string,
) (*Raw, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Raw{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// doJSON sends in (if non-nil) as JSON and decodes a 2xx body into out (if
// non-nil). Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	raw, err := c.Send(ctx, method, path, body, nil, bearer)
	if err != nil {
		return err
	}

	return decodeJSON(raw, out)
}

// decodeJSON decodes a response into the target.
// Returns an *APIError if the response indicates an error.
func decodeJSON(raw *Raw, target any) error {
	if err := parseErrorResponse(raw.StatusCode, raw.Body); err != nil {
		return err
	}

	if target == nil || len(raw.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
