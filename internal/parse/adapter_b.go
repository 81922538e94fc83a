package parse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/model"
)

// PDFCPUAdapter is the balanced, general-purpose backend: it asks pdfcpu
// for each page's raw content stream and tokenizes the text-showing
// operators itself, since pdfcpu's public API extracts content but does
// not parse it into positioned runs. This is the adapter relied on when
// neither the dense-text nor table-specialist backend is clearly better
// suited to a page.
type PDFCPUAdapter struct {
	logger  arbor.ILogger
	workDir string
}

// NewPDFCPUAdapter constructs the balanced backend. workDir is used as a
// scratch location for pdfcpu's extracted content files and is cleaned up
// after each Parse call.
func NewPDFCPUAdapter(logger arbor.ILogger, workDir string) *PDFCPUAdapter {
	return &PDFCPUAdapter{logger: logger, workDir: workDir}
}

func (a *PDFCPUAdapter) Name() string { return BackendBalancedPDFCPU }

var (
	reTj     = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)\s*Tj`)
	reTJ     = regexp.MustCompile(`\[(?:[^\]]*)\]\s*TJ`)
	reString = regexp.MustCompile(`\((?:[^()\\]|\\.)*\)`)
	reBT     = regexp.MustCompile(`BT`)
)

// Parse extracts each page's content stream to a scratch directory via
// pdfcpu, then tokenizes the PDF text-showing operators (Tj, TJ) into
// TextBlocks. Table detection runs a simple column-alignment heuristic
// over the same token stream.
func (a *PDFCPUAdapter) Parse(ctx context.Context, pdfPath string) (Result, error) {
	scratch, err := os.MkdirTemp(a.workDir, "pdfcpu-content-*")
	if err != nil {
		return Result{}, fmt.Errorf("parse: adapter-b scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := api.ExtractContentFile(pdfPath, scratch, nil, nil); err != nil {
		return Result{}, fmt.Errorf("parse: adapter-b extract content: %w", err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return Result{}, fmt.Errorf("parse: adapter-b read scratch dir: %w", err)
	}

	result := Result{Backend: a.Name()}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pageNum := pageNumberFromContentFile(entry.Name())
		raw, err := os.ReadFile(filepath.Join(scratch, entry.Name()))
		if err != nil {
			if a.logger != nil {
				a.logger.Warn().Str("file", entry.Name()).Err(err).Msg("adapter-b: skipping unreadable content file")
			}
			continue
		}
		blocks, tables := tokenizeContentStream(string(raw), pageNum)
		result.TextBlocks = append(result.TextBlocks, blocks...)
		result.TableBlocks = append(result.TableBlocks, tables...)
	}

	return result, nil
}

var reContentFilePage = regexp.MustCompile(`(\d+)\.txt$`)

func pageNumberFromContentFile(name string) int {
	m := reContentFilePage.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// tokenizeContentStream walks a decompressed PDF page content stream and
// pulls out the literal strings passed to Tj/TJ, grouping consecutive
// strings within one BT/ET run into a single TextBlock. It deliberately
// does not track the text matrix (Tm/Td) operands for positioning, so
// bounding boxes are left nil and no later stage fills them in.
func tokenizeContentStream(stream string, pageNum int) ([]model.TextBlock, []model.TableBlock) {
	var blocks []model.TextBlock
	var currentRun []string

	flush := func() {
		if len(currentRun) == 0 {
			return
		}
		text := strings.Join(currentRun, " ")
		blocks = append(blocks, model.TextBlock{
			BlockID:    model.NewID("blk"),
			Text:       text,
			PageNumber: pageNum,
			BlockType:  model.BlockBody,
		})
		currentRun = nil
	}

	lines := strings.Split(stream, "\n")
	for _, line := range lines {
		if reBT.MatchString(line) {
			flush()
			continue
		}
		for _, match := range reTj.FindAllString(line, -1) {
			currentRun = append(currentRun, unescapePDFString(reString.FindString(match)))
		}
		for _, match := range reTJ.FindAllString(line, -1) {
			for _, s := range reString.FindAllString(match, -1) {
				currentRun = append(currentRun, unescapePDFString(s))
			}
		}
	}
	flush()

	tables := detectAlignedColumns(blocks, pageNum)
	return blocks, tables
}

func unescapePDFString(literal string) string {
	s := strings.TrimPrefix(literal, "(")
	s = strings.TrimSuffix(s, ")")
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	return replacer.Replace(s)
}

// detectAlignedColumns is a conservative layout heuristic: a run of two
// or more consecutive blocks that each split into aligned columns is
// treated as one table, its first row promoted to the header when mostly
// non-numeric (and the second row joined to it under the rule
// promoteHeaders applies). It is intentionally
// weaker than the table-specialist adapter's analysis and exists mainly
// so adapter-b degrades gracefully when the specialist backend fails
// outright on a page.
func detectAlignedColumns(blocks []model.TextBlock, pageNum int) []model.TableBlock {
	var run [][]string
	var tables []model.TableBlock

	flushRun := func() {
		if len(run) < 2 {
			run = nil
			return
		}
		rows := padRows(run)
		headers, data := promoteHeaders(rows)
		if len(data) > 0 {
			tables = append(tables, model.TableBlock{
				TableID:    model.NewID("tbl"),
				PageNumber: pageNum,
				Headers:    headers,
				Data:       data,
			})
		}
		run = nil
	}

	for _, b := range blocks {
		cells := splitColumns(b.Text)
		if len(cells) >= 2 && reHasDigit.MatchString(b.Text) {
			run = append(run, cells)
		} else {
			flushRun()
		}
	}
	flushRun()
	return tables
}

var reHasDigit = regexp.MustCompile(`\d`)
