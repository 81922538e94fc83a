package parse

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/finxtract/finxtract/internal/model"
)

// DenseTextAdapter is the narrative-text specialist: it favors recall of
// body prose over table structure, and classifies each text run as a
// heading, footnote or body block using surface heuristics (case, length,
// a leading section number or footnote marker) rather than font metadata,
// since font size/weight is not
// reliably recoverable from a PDF's raw content stream without a full
// glyph-metrics pass. It never emits TableBlocks; the pipeline always
// pairs it with adapter-b or adapter-c for table coverage.
type DenseTextAdapter struct {
	inner *PDFCPUAdapter
}

// NewDenseTextAdapter builds the dense-text backend on top of the same
// content-stream tokenizer adapter-b uses, reclassifying its output.
func NewDenseTextAdapter(inner *PDFCPUAdapter) *DenseTextAdapter {
	return &DenseTextAdapter{inner: inner}
}

func (a *DenseTextAdapter) Name() string { return BackendDenseText }

var (
	reAllCapsHeading = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 ,.&'()/-]{2,80}$`)
	reNumberedHeading = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+[A-Z]`)
)

// Parse delegates content-stream tokenization to the pdfcpu-backed
// adapter, then reclassifies each resulting TextBlock's BlockType using
// heading heuristics and drops any TableBlocks the inner adapter
// detected — dense-text's contract is text blocks only.
func (a *DenseTextAdapter) Parse(ctx context.Context, pdfPath string) (Result, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return Result{}, fmt.Errorf("parse: adapter-a stat %s: %w", pdfPath, err)
	}

	inner, err := a.inner.Parse(ctx, pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("parse: adapter-a delegate to adapter-b: %w", err)
	}

	result := Result{Backend: a.Name()}
	for _, block := range inner.TextBlocks {
		block.BlockType = classifyBlockType(block.Text)
		result.TextBlocks = append(result.TextBlocks, block)
	}
	return result, nil
}

// classifyBlockType labels a text run as a heading when it is at most 80
// characters and either all-caps or led by a section number such as "3.2"
// (a title-cased line without a number is not a heading here), and as a
// footnote when it starts with a footnote marker ("*", "†", "(1)");
// everything else is body text.
func classifyBlockType(text string) model.BlockType {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return model.BlockBody
	case len(trimmed) <= 80 && (reAllCapsHeading.MatchString(trimmed) || reNumberedHeading.MatchString(trimmed)):
		return model.BlockHeading
	case strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "†") || reFootnoteLead.MatchString(trimmed):
		return model.BlockFootnote
	default:
		return model.BlockBody
	}
}

var reFootnoteLead = regexp.MustCompile(`^\(\d+\)`)
