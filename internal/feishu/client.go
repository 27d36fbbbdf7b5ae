// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feishu is the bitable/docx workspace client: tenant auth,
// bitable bootstrap and record upserts, detail-document creation from
// converted blocks, and webhook card delivery.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/kmsync/internal/httputil"
	"github.com/pdiddy/kmsync/pkg/types"
)

// DefaultBaseURL is the open-platform API root.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

// Client talks to the bitable and docx APIs for one tenant app.
type Client struct {
	// BaseURL is the API root. Tests point it at an httptest server.
	BaseURL string

	HTTP *http.Client

	cfg   types.FeishuConfig
	token string

	// tableIDs caches table-name lookups within the configured bitable.
	tableIDs map[TableKey]string
}

// NewClient builds a client from config. The access token is fetched
// lazily on the first call.
func NewClient(cfg types.FeishuConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:  DefaultBaseURL,
		HTTP:     &http.Client{Timeout: timeout},
		cfg:      cfg,
		tableIDs: make(map[TableKey]string),
	}
}

// BitableToken returns the bitable app token in use, which Init may
// have created.
func (c *Client) BitableToken() string { return c.cfg.BitableToken }

// apiResponse is the vendor envelope. Code 0 means success; anything
// else carries a message.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// authResponse is the tenant token endpoint's envelope; unlike every
// other endpoint the token sits beside code/msg, not under data.
type authResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
}

// Authenticate fetches a tenant access token. Called automatically by
// request helpers when no token is cached.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
	})
	if err != nil {
		return fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return fmt.Errorf("tenant auth request: %w", err)
	}
	defer resp.Body.Close()

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return fmt.Errorf("parsing auth response: %w", err)
	}
	if ar.Code != 0 {
		return fmt.Errorf("tenant auth failed: code %d: %s", ar.Code, ar.Msg)
	}

	c.token = ar.TenantAccessToken
	return nil
}

// do issues an authenticated JSON request and decodes the envelope.
// result may be nil when the caller only cares about success. Vendor
// error codes other than okCodes become Go errors.
func (c *Client) do(ctx context.Context, method, path string, payload any, result any, okCodes ...int) (int, error) {
	if c.token == "" {
		if err := c.Authenticate(ctx); err != nil {
			return 0, err
		}
	}

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, fmt.Errorf("parsing response for %s: %w", path, err)
	}

	if env.Code != 0 && !containsCode(okCodes, env.Code) {
		return env.Code, fmt.Errorf("%s %s: code %d: %s", method, path, env.Code, env.Msg)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return env.Code, fmt.Errorf("decoding data for %s: %w", path, err)
		}
	}
	return env.Code, nil
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// DateMillis converts a calendar date to the millisecond timestamp the
// bitable date fields expect.
func DateMillis(t time.Time) int64 {
	return t.UnixMilli()
}
