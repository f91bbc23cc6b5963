package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/hullbook/pkg/upstream"
)

const providerName = "square"

type client struct {
	baseURL string
	version string
	http    *http.Client
}

func newClient(baseURL, version string, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends one request and decodes the body into out. Non-2xx responses and
// 2xx responses carrying an errors array both become upstream errors.
func (c *client) do(ctx context.Context, token, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Square-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("square %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		return upstream.New(providerName, resp.StatusCode, errorDetail(env, raw))
	}
	if len(env.Errors) > 0 {
		return upstream.New(providerName, http.StatusBadRequest, errorDetail(env, raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode square response: %w", err)
	}
	return nil
}

func errorDetail(env envelope, raw []byte) string {
	for _, e := range env.Errors {
		if detail := strings.TrimSpace(e.Detail); detail != "" {
			return detail
		}
		if code := strings.TrimSpace(e.Code); code != "" {
			return code
		}
	}
	return strings.TrimSpace(string(raw))
}
