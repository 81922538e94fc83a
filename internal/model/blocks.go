// Package model holds the immutable value records threaded through the
// pipeline stage-to-stage: blocks, sections, candidates, validation
// results, financial metrics, document metadata, and the accreting
// AgentState that carries them all. Nothing here performs extraction or
// validation logic; it only defines the shapes those stages produce.
package model

// BlockType classifies a TextBlock by its visual role on the page.
type BlockType string

const (
	BlockHeading  BlockType = "heading"
	BlockBody     BlockType = "body"
	BlockFootnote BlockType = "footnote"
	BlockTable    BlockType = "table"
)

// BoundingBox is optional positional metadata. None of the parser
// adapters in this repository sets it, so it is nil on every emitted block.
type BoundingBox struct {
	X0, Y0, X1, Y1 float64
}

// FontInfo is optional font metadata. No adapter populates it; Adapter-A's
// heading heuristic works from the block text alone.
type FontInfo struct {
	Name string
	Size float64
	Bold bool
}

// TextBlock is a unit of visible narrative content on a page, produced by
// a parser adapter and consumed by the section locator and candidate
// generator. Immutable after emission.
type TextBlock struct {
	BlockID    string
	Text       string
	PageNumber int // 1-indexed
	BlockType  BlockType
	BBox       *BoundingBox
	FontInfo   *FontInfo
}

// TableBlock is a rectangular grid of cell strings extracted from a page.
// Invariant: every row in Data has the same length as the widest header
// row, if any header rows are present; parsers that cannot guarantee this
// must pad short rows with empty strings before returning the TableBlock.
type TableBlock struct {
	TableID    string
	PageNumber int
	Headers    [][]string // sequence of header rows
	Data       [][]string // rectangular data rows
	Metadata   TableMetadata
	BBox       *BoundingBox
}

// TableMetadata carries detected currency/scale/year hints for a table,
// left zero-valued when detection found nothing.
type TableMetadata struct {
	Currency string
	Scale    string
	Years    []string
	Accuracy float64
}

// Width returns the number of columns in the table, derived from the
// widest header row, or the first data row if there are no headers.
func (t TableBlock) Width() int {
	width := 0
	for _, row := range t.Headers {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 && len(t.Data) > 0 {
		width = len(t.Data[0])
	}
	return width
}

// IsRectangular reports whether every data row matches Width(). Parser
// adapters must guarantee this before returning a TableBlock; no later
// stage re-checks it.
func (t TableBlock) IsRectangular() bool {
	width := t.Width()
	for _, row := range t.Data {
		if len(row) != width {
			return false
		}
	}
	return true
}
