package parse

import (
	"context"
	"fmt"
	"strings"

	"github.com/finxtract/finxtract/internal/model"
)

// TableSpecialistAdapter favors precision of table structure over text
// recall. It has two flavors, tried in order: bordered-line (cells
// separated by drawn "|" rules, the rendering some generators use for
// ruled tables) and whitespace-stream (columns separated by runs of two
// or more spaces). Rows are padded to the widest row so every emitted
// TableBlock is rectangular (model.TableBlock.IsRectangular), and a
// leading mostly-non-numeric row is promoted to the header. It never
// emits TextBlocks for narrative prose — the pipeline always pairs it
// with a text-focused backend.
type TableSpecialistAdapter struct {
	inner *PDFCPUAdapter
}

// NewTableSpecialistAdapter builds the table backend on the same
// content-stream tokenizer as adapter-b.
func NewTableSpecialistAdapter(inner *PDFCPUAdapter) *TableSpecialistAdapter {
	return &TableSpecialistAdapter{inner: inner}
}

func (a *TableSpecialistAdapter) Name() string { return BackendTableSpecialist }

// Parse re-tokenizes each row produced by the shared content-stream
// tokenizer. The bordered-line flavor runs first; when it finds no
// tables at all, the whitespace-stream flavor retries over the same
// blocks.
func (a *TableSpecialistAdapter) Parse(ctx context.Context, pdfPath string) (Result, error) {
	inner, err := a.inner.Parse(ctx, pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("parse: adapter-c delegate to adapter-b: %w", err)
	}

	result := Result{Backend: a.Name()}
	result.TableBlocks = extractTables(inner.TextBlocks, splitBorderedColumns)
	if len(result.TableBlocks) == 0 {
		result.TableBlocks = extractTables(inner.TextBlocks, splitColumns)
	}
	return result, nil
}

// extractTables groups table-looking rows by page, pads them, promotes
// headers, and emits one TableBlock per page.
func extractTables(blocks []model.TextBlock, split func(string) []string) []model.TableBlock {
	byPage := make(map[int][][]string)
	order := make([]int, 0)
	for _, block := range blocks {
		cells := split(block.Text)
		if !looksLikeTableRow(cells) {
			continue
		}
		if _, seen := byPage[block.PageNumber]; !seen {
			order = append(order, block.PageNumber)
		}
		byPage[block.PageNumber] = append(byPage[block.PageNumber], cells)
	}

	var tables []model.TableBlock
	for _, page := range order {
		rows := padRows(byPage[page])
		headers, data := promoteHeaders(rows)
		if len(data) == 0 {
			continue
		}
		tables = append(tables, model.TableBlock{
			TableID:    model.NewID("tbl"),
			PageNumber: page,
			Headers:    headers,
			Data:       data,
		})
	}
	return tables
}

// splitBorderedColumns splits a row on drawn "|" cell borders; a row
// without at least one interior border yields nothing, which is how the
// bordered-line flavor fails over to whitespace-stream.
func splitBorderedColumns(text string) []string {
	trimmed := strings.Trim(strings.TrimSpace(text), "|")
	if !strings.Contains(trimmed, "|") {
		return nil
	}
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func splitColumns(text string) []string {
	parts := reWhitespaceRun.Split(strings.TrimSpace(text), -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// looksLikeTableRow requires at least two cells and either a numeric
// majority or a leading label cell followed by only numeric/empty cells,
// so ordinary prose (which also contains the occasional figure) is not
// misclassified as a table row.
func looksLikeTableRow(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	numeric := 0
	for _, c := range cells {
		if c == "" || reNumericCell.MatchString(c) {
			numeric++
		}
	}
	if numeric*2 >= len(cells) {
		return true
	}
	// label-plus-figures shape: first cell free text, the rest numeric
	for _, c := range cells[1:] {
		if c != "" && !reNumericCell.MatchString(c) {
			return false
		}
	}
	return true
}
