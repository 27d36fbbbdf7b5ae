// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BlockKind identifies one kind of content block produced by the
// Markdown converter.
type BlockKind string

const (
	BlockHeading1  BlockKind = "heading1"
	BlockHeading2  BlockKind = "heading2"
	BlockHeading3  BlockKind = "heading3"
	BlockBullet    BlockKind = "bullet"
	BlockOrdered   BlockKind = "ordered"
	BlockCode      BlockKind = "code"
	BlockQuote     BlockKind = "quote"
	BlockDivider   BlockKind = "divider"
	BlockParagraph BlockKind = "paragraph"

	// BlockTableRow carries one table row flattened to " | "-joined cell
	// text. Only produced under the text table policy; targets without
	// native tables receive table runs as code blocks instead.
	BlockTableRow BlockKind = "table_row"
)

// Block is one typed content block. The block sequence, read in order,
// reconstructs the document's reading order. Blocks are immutable once
// produced and carry no back-reference to their source position.
type Block struct {
	Kind BlockKind `json:"kind" yaml:"kind"`

	// Text is the block's content. Empty for dividers.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Language is the fence info string of a code block ("plain text"
	// when the fence carried none under the code table policy).
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}
