// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feishu

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/kmsync/pkg/types"
)

// docx numeric block types.
const (
	docBlockText     = 2
	docBlockHeading1 = 3
	docBlockHeading2 = 4
	docBlockHeading3 = 5
	docBlockBullet   = 12
	docBlockOrdered  = 13
	docBlockCode     = 14
	docBlockQuote    = 19
	docBlockDivider  = 22
)

// codeLanguages maps fence info strings to docx language codes. Unknown
// languages fall back to plain text.
var codeLanguages = map[string]int{
	"plaintext":  1,
	"plain text": 1,
	"bash":       4,
	"shell":      4,
	"sh":         4,
	"go":         22,
	"json":       28,
	"python":     49,
	"py":         49,
	"sql":        54,
	"yaml":       66,
	"markdown":   37,
}

// CreateDocument creates a docx document in the configured folder,
// appends the blocks in batches, and returns the document's shareable
// URL. Empty block lists still produce a document.
func (c *Client) CreateDocument(ctx context.Context, title string, blocks []types.Block, batchSize int) (string, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	var data struct {
		Document struct {
			DocumentID string `json:"document_id"`
		} `json:"document"`
	}
	payload := map[string]string{
		"folder_token": c.cfg.FolderToken,
		"title":        title,
	}
	if _, err := c.do(ctx, http.MethodPost, "/docx/v1/documents", payload, &data); err != nil {
		return "", fmt.Errorf("creating document %q: %w", title, err)
	}
	docID := data.Document.DocumentID

	for start := 0; start < len(blocks); start += batchSize {
		end := start + batchSize
		if end > len(blocks) {
			end = len(blocks)
		}
		if err := c.appendBlocks(ctx, docID, blocks[start:end]); err != nil {
			return "", err
		}
	}

	return c.DocURL(docID), nil
}

// appendBlocks appends one batch as children of the document root.
func (c *Client) appendBlocks(ctx context.Context, docID string, blocks []types.Block) error {
	children := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		children = append(children, docBlock(b))
	}

	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, docID)
	payload := map[string]any{
		"children": children,
		"index":    -1,
	}
	if _, err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("appending blocks to %s: %w", docID, err)
	}
	return nil
}

// docBlock renders one converted block as docx JSON.
func docBlock(b types.Block) map[string]any {
	elements := []map[string]any{
		{"text_run": map[string]any{"content": b.Text}},
	}
	content := map[string]any{"elements": elements}

	switch b.Kind {
	case types.BlockHeading1:
		return map[string]any{"block_type": docBlockHeading1, "heading1": content}
	case types.BlockHeading2:
		return map[string]any{"block_type": docBlockHeading2, "heading2": content}
	case types.BlockHeading3:
		return map[string]any{"block_type": docBlockHeading3, "heading3": content}
	case types.BlockBullet:
		return map[string]any{"block_type": docBlockBullet, "bullet": content}
	case types.BlockOrdered:
		return map[string]any{"block_type": docBlockOrdered, "ordered": content}
	case types.BlockCode:
		lang := codeLanguages[b.Language]
		if lang == 0 {
			lang = codeLanguages["plaintext"]
		}
		content["style"] = map[string]any{"language": lang}
		return map[string]any{"block_type": docBlockCode, "code": content}
	case types.BlockQuote:
		return map[string]any{"block_type": docBlockQuote, "quote": content}
	case types.BlockDivider:
		return map[string]any{"block_type": docBlockDivider, "divider": map[string]any{}}
	default:
		return map[string]any{"block_type": docBlockText, "text": content}
	}
}

// DocURL builds the shareable link for a docx document.
func (c *Client) DocURL(docID string) string {
	host := c.cfg.DocHost
	if host == "" {
		host = "https://feishu.cn"
	}
	return host + "/docx/" + docID
}
