// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion archives conversations into a Notion database. Each
// archive becomes one page: extracted metadata fills the database
// properties and the converted blocks fill the page body.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/kmsync/internal/httputil"
	"github.com/pdiddy/kmsync/pkg/types"
)

const (
	// DefaultBaseURL is the Notion API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	// apiVersion is the pinned Notion-Version header value.
	apiVersion = "2022-06-28"

	// maxChildrenPerRequest is the Notion limit on blocks per append.
	maxChildrenPerRequest = 100
)

// Client talks to the Notion API for one integration.
type Client struct {
	// BaseURL is the API root. Tests point it at an httptest server.
	BaseURL string

	HTTP *http.Client

	cfg types.NotionConfig
}

// NewClient builds a client from config.
func NewClient(cfg types.NotionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: timeout},
		cfg:     cfg,
	}
}

// apiError is the Notion error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do issues an authenticated request and decodes the JSON response into
// result (which may be nil).
func (c *Client) do(ctx context.Context, method, path string, payload any, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Notion-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && ae.Message != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, ae.Message, ae.Code)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response for %s: %w", path, err)
		}
	}
	return nil
}

// page is the subset of a Notion page object the sync layer needs.
type page struct {
	ID string `json:"id"`
}

// pageProperties builds the database property payload from metadata.
func pageProperties(meta types.ArchiveMeta) map[string]any {
	props := map[string]any{
		"标题": map[string]any{
			"title": []map[string]any{
				{"text": map[string]any{"content": meta.Topic}},
			},
		},
		"日期": map[string]any{
			"date": map[string]any{"start": meta.Date.Format("2006-01-02")},
		},
		"一句话总结": map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]any{"content": meta.Summary}},
			},
		},
	}

	tags := make([]map[string]any, 0, len(meta.Tags))
	for _, tag := range meta.Tags {
		tags = append(tags, map[string]any{"name": tag})
	}
	props["标签"] = map[string]any{"multi_select": tags}

	return props
}

// CreatePage creates a database page from archive metadata and body
// blocks. Bodies beyond the per-request limit are appended in follow-up
// calls. Returns the new page ID.
func (c *Client) CreatePage(ctx context.Context, meta types.ArchiveMeta, blocks []types.Block) (string, error) {
	children := notionBlocks(blocks)
	first := children
	if len(first) > maxChildrenPerRequest {
		first = first[:maxChildrenPerRequest]
	}

	payload := map[string]any{
		"parent":     map[string]string{"database_id": c.cfg.DatabaseID},
		"properties": pageProperties(meta),
		"children":   first,
	}

	var created page
	if err := c.do(ctx, http.MethodPost, "/pages", payload, &created); err != nil {
		return "", fmt.Errorf("creating page %q: %w", meta.Topic, err)
	}

	for start := maxChildrenPerRequest; start < len(children); start += maxChildrenPerRequest {
		end := start + maxChildrenPerRequest
		if end > len(children) {
			end = len(children)
		}
		if err := c.appendChildren(ctx, created.ID, children[start:end]); err != nil {
			return "", err
		}
	}

	return created.ID, nil
}

func (c *Client) appendChildren(ctx context.Context, blockID string, children []map[string]any) error {
	payload := map[string]any{"children": children}
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", payload, nil); err != nil {
		return fmt.Errorf("appending children to %s: %w", blockID, err)
	}
	return nil
}

// FindPageByTitle looks up an existing page in the database by its 标题
// property. Returns "" when no page matches.
func (c *Client) FindPageByTitle(ctx context.Context, title string) (string, error) {
	payload := map[string]any{
		"filter": map[string]any{
			"property": "标题",
			"title":    map[string]any{"equals": title},
		},
		"page_size": 1,
	}

	var result struct {
		Results []page `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/databases/"+c.cfg.DatabaseID+"/query", payload, &result); err != nil {
		return "", fmt.Errorf("querying database: %w", err)
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

// UpdatePage replaces an existing page's properties and body. The old
// children are deleted one by one before the new blocks are appended,
// since Notion has no bulk replace.
func (c *Client) UpdatePage(ctx context.Context, pageID string, meta types.ArchiveMeta, blocks []types.Block) error {
	existing, err := c.listChildren(ctx, pageID)
	if err != nil {
		return err
	}
	for _, id := range existing {
		if err := c.do(ctx, http.MethodDelete, "/blocks/"+id, nil, nil); err != nil {
			return fmt.Errorf("deleting block %s: %w", id, err)
		}
	}

	payload := map[string]any{"properties": pageProperties(meta)}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, payload, nil); err != nil {
		return fmt.Errorf("updating page %s: %w", pageID, err)
	}

	children := notionBlocks(blocks)
	for start := 0; start < len(children); start += maxChildrenPerRequest {
		end := start + maxChildrenPerRequest
		if end > len(children) {
			end = len(children)
		}
		if err := c.appendChildren(ctx, pageID, children[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// listChildren returns the IDs of a block's direct children, following
// pagination.
func (c *Client) listChildren(ctx context.Context, blockID string) ([]string, error) {
	var ids []string
	cursor := ""

	for {
		path := "/blocks/" + blockID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var result struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", blockID, err)
		}

		for _, r := range result.Results {
			ids = append(ids, r.ID)
		}
		if !result.HasMore {
			return ids, nil
		}
		cursor = result.NextCursor
	}
}
