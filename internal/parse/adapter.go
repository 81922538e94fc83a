// Package parse implements the parser-backend fan-out: several independent
// adapters each attempt to turn one PDF page into TextBlocks/TableBlocks,
// and the pipeline runs all configured adapters concurrently; the blockify
// stage then takes text from the highest-priority backend that produced
// any and unions tables across backends, dropping near-duplicates. No
// single PDF library can be trusted to both segment body text and detect
// tables equally well across the long tail of filing layouts, so the
// system hedges with more than one.
package parse

import (
	"context"
	"time"

	"github.com/finxtract/finxtract/internal/model"
)

// Result is one adapter's output for a single document.
type Result struct {
	Backend     string
	TextBlocks  []model.TextBlock
	TableBlocks []model.TableBlock
}

// Parser is the shared interface every backend adapter implements. Name
// identifies the backend in logs, evidence trails, and
// common.DefaultParserPriority.
type Parser interface {
	Name() string
	Parse(ctx context.Context, pdfPath string) (Result, error)
}

// Backend name constants, matching common.DefaultParserPriority.
const (
	BackendDenseText       = "adapter-a"
	BackendBalancedPDFCPU  = "adapter-b"
	BackendTableSpecialist = "adapter-c"
)

// WithTimeout caps a single adapter's Parse call at d, so one backend
// stuck on a pathological document cannot stall the whole fan-out.
func WithTimeout(p Parser, d time.Duration) Parser {
	if d <= 0 {
		return p
	}
	return &timeoutParser{inner: p, timeout: d}
}

type timeoutParser struct {
	inner   Parser
	timeout time.Duration
}

func (t *timeoutParser) Name() string { return t.inner.Name() }

func (t *timeoutParser) Parse(ctx context.Context, pdfPath string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Parse(ctx, pdfPath)
}
