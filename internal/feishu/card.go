// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/kmsync/internal/httputil"
)

// Card is an interactive message card for group webhook delivery.
type Card struct {
	Header   CardHeader       `json:"header"`
	Elements []map[string]any `json:"elements"`
}

// CardHeader carries the card title and its color template (green,
// orange, blue, red).
type CardHeader struct {
	Template string    `json:"template"`
	Title    CardTitle `json:"title"`
}

type CardTitle struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// NewCard starts a card with the given color template and title.
func NewCard(template, title string) *Card {
	return &Card{
		Header: CardHeader{
			Template: template,
			Title:    CardTitle{Tag: "plain_text", Content: title},
		},
	}
}

// Markdown appends a lark_md text section.
func (c *Card) Markdown(content string) *Card {
	c.Elements = append(c.Elements, map[string]any{
		"tag": "div",
		"text": map[string]any{
			"tag":     "lark_md",
			"content": content,
		},
	})
	return c
}

// Divider appends a horizontal rule.
func (c *Card) Divider() *Card {
	c.Elements = append(c.Elements, map[string]any{"tag": "hr"})
	return c
}

// Note appends a small footer note.
func (c *Card) Note(content string) *Card {
	c.Elements = append(c.Elements, map[string]any{
		"tag": "note",
		"elements": []map[string]any{
			{"tag": "plain_text", "content": content},
		},
	})
	return c
}

// SendCard posts a card to a group bot webhook. Webhook delivery does
// not use tenant auth; the URL itself is the credential.
func SendCard(ctx context.Context, client *http.Client, webhookURL string, card *Card) error {
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(map[string]any{
		"msg_type": "interactive",
		"card":     card,
	})
	if err != nil {
		return fmt.Errorf("encoding card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("posting card: %w", err)
	}
	defer resp.Body.Close()

	var env struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("parsing webhook response: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("webhook rejected card: code %d: %s", env.Code, env.Msg)
	}
	return nil
}
