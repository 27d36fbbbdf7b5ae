// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown converts archive documents into typed content blocks
// and extracts structured metadata from them. Everything here is a pure,
// single-pass text transform: no I/O, no shared state, and no failure
// mode that reaches the caller — malformed input degrades field
// completeness, it never aborts.
package markdown

import (
	"regexp"
	"strings"

	"github.com/pdiddy/kmsync/pkg/types"
)

// TablePolicy selects how table rows are represented. Each upload target
// uses one policy consistently.
type TablePolicy int

const (
	// TableRowsAsText drops pure separator rows and flattens content
	// rows to a " | "-joined TableRow block.
	TableRowsAsText TablePolicy = iota

	// TableRowsAsCode accumulates a run of consecutive table lines into
	// a single "plain text" code block, for targets without native
	// table blocks.
	TableRowsAsCode
)

// Options controls format-specific converter behavior.
type Options struct {
	Tables TablePolicy
}

var orderedItemRE = regexp.MustCompile(`^\d+\. `)

// Convert turns the full text of a Markdown document into an ordered
// block sequence. The pass is line-oriented with a single grouping rule
// for fenced code (and, under TableRowsAsCode, table runs). Blank lines
// emit nothing. Output order matches input line order exactly.
func Convert(text string, opts Options) []types.Block {
	var blocks []types.Block
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}

		// Fenced code: accumulate verbatim until the closing fence. An
		// unterminated fence still emits whatever was accumulated.
		if strings.HasPrefix(trimmed, "```") {
			language := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			blocks = append(blocks, types.Block{
				Kind:     types.BlockCode,
				Text:     strings.Join(code, "\n"),
				Language: language,
			})
			continue
		}

		// Table runs under the code policy swallow every consecutive
		// line containing a pipe.
		if opts.Tables == TableRowsAsCode && strings.HasPrefix(trimmed, "|") {
			run := []string{lines[i]}
			for i+1 < len(lines) && strings.Contains(lines[i+1], "|") {
				i++
				run = append(run, lines[i])
			}
			blocks = append(blocks, types.Block{
				Kind:     types.BlockCode,
				Text:     strings.Join(run, "\n"),
				Language: "plain text",
			})
			continue
		}

		if b, ok := classifyLine(trimmed, opts); ok {
			blocks = append(blocks, b)
		}
	}

	return blocks
}

// classifyLine maps one non-blank, non-fenced line to a block. The
// precedence is fixed: heading, bullet, ordered, quote, divider, table
// row, paragraph.
func classifyLine(trimmed string, opts Options) (types.Block, bool) {
	switch {
	case strings.HasPrefix(trimmed, "# "):
		return textBlock(types.BlockHeading1, trimmed[2:])
	case strings.HasPrefix(trimmed, "## "):
		return textBlock(types.BlockHeading2, trimmed[3:])
	case strings.HasPrefix(trimmed, "### "):
		return textBlock(types.BlockHeading3, trimmed[4:])

	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		content := strings.TrimSpace(trimmed[2:])
		// A checkbox marker directly after the bullet is stripped; the
		// checked state is not carried into the block.
		if strings.HasPrefix(content, "[ ]") || strings.HasPrefix(content, "[x]") {
			content = strings.TrimSpace(content[3:])
		}
		return textBlock(types.BlockBullet, content)

	case orderedItemRE.MatchString(trimmed):
		_, content, _ := strings.Cut(trimmed, ". ")
		return textBlock(types.BlockOrdered, content)

	case strings.HasPrefix(trimmed, "> "):
		return textBlock(types.BlockQuote, trimmed[2:])

	case trimmed == "---" || trimmed == "***" || trimmed == "___":
		return types.Block{Kind: types.BlockDivider}, true

	// A heading marker whose text was nothing but whitespace arrives
	// here as bare hashes; it carries no content and emits nothing.
	case trimmed == "#" || trimmed == "##" || trimmed == "###":
		return types.Block{}, false

	case opts.Tables == TableRowsAsText && strings.Contains(trimmed, "|"):
		if isTableSeparator(trimmed) {
			return types.Block{}, false
		}
		return textBlock(types.BlockTableRow, strings.Join(splitCells(trimmed), " | "))

	default:
		return textBlock(types.BlockParagraph, trimmed)
	}
}

// textBlock trims the content and suppresses blocks that would carry no
// text at all (e.g. "## " with nothing after it).
func textBlock(kind types.BlockKind, content string) (types.Block, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Block{}, false
	}
	return types.Block{Kind: kind, Text: content}, true
}

// isTableSeparator reports whether the row consists only of pipes,
// dashes, and whitespace.
func isTableSeparator(line string) bool {
	for _, r := range line {
		switch r {
		case '|', '-', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// splitCells returns the trimmed, non-empty cells of a table row, in
// order. Shared with the thread parser.
func splitCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
