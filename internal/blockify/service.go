// Package blockify reconciles the independent outputs of every parser
// backend that ran over a document into one merged set of TextBlocks and
// TableBlocks: text comes from the highest-priority backend that
// produced any, tables are unioned across all backends with the
// table-specialist's inserted first and near-duplicates from lesser
// backends dropped page by page.
package blockify

import (
	"fmt"

	"github.com/finxtract/finxtract/internal/common"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/parse"
)

// Policy controls which backend wins for a given content type when more
// than one backend produced output for the same page.
type Policy struct {
	// Priority is the backend order used for text selection and for
	// fallback-only mode.
	Priority []string
	// TableSpecialists lists backends whose tables are inserted before
	// any other backend's tables are considered.
	TableSpecialists []string
	// FallbackOnly switches Merge to first-successful-backend semantics:
	// no cross-backend reconciliation, just the first backend in Priority
	// that returned anything.
	FallbackOnly bool
}

// DefaultPolicy matches the stated preference order: dense-text first
// for narrative, the table specialist first for tables.
var DefaultPolicy = Policy{
	Priority:         []string{parse.BackendDenseText, parse.BackendBalancedPDFCPU, parse.BackendTableSpecialist},
	TableSpecialists: []string{parse.BackendTableSpecialist},
}

// Service merges the per-backend parse.Result set for one document into a
// single reconciled block set.
type Service struct {
	policy Policy
}

// New builds a blockify Service with the given merge policy.
func New(policy Policy) *Service {
	return &Service{policy: policy}
}

// Merge combines every backend's results into one set of blocks,
// applying Policy. Only results from backends whose run succeeded should
// be passed in; a failed backend is represented by its absence.
func (s *Service) Merge(results []parse.Result) ([]model.TextBlock, []model.TableBlock, []common.StageError) {
	byBackend := make(map[string]parse.Result, len(results))
	for _, r := range results {
		byBackend[r.Backend] = r
	}

	if s.policy.FallbackOnly {
		return s.mergeFallback(byBackend)
	}

	var errs []common.StageError

	textBlocks, textErr := s.mergeText(byBackend)
	if textErr != nil {
		errs = append(errs, *textErr)
	}

	tableBlocks := s.mergeTables(byBackend)
	if tableBlocks == nil && len(byBackend) == 0 {
		err := common.NewStageError("blockify", common.ErrorExtractionEmpty, "no parser backend results available", nil)
		errs = append(errs, err)
	}

	return dedupeText(textBlocks), tableBlocks, errs
}

// mergeFallback returns the first successful backend's (text, tables)
// pair in priority order, with a pipeline-level error when every backend
// failed.
func (s *Service) mergeFallback(byBackend map[string]parse.Result) ([]model.TextBlock, []model.TableBlock, []common.StageError) {
	for _, name := range s.policy.Priority {
		if r, ok := byBackend[name]; ok {
			return r.TextBlocks, r.TableBlocks, nil
		}
	}
	err := common.NewStageError("blockify", common.ErrorBackendFailure, "fallback mode: every parser backend failed", nil)
	return nil, nil, []common.StageError{err}
}

// mergeText selects text blocks from the first backend in priority order
// that produced any. The table specialist contributes no text, so a run
// where only it succeeded legitimately yields an empty text stream; an
// ExtractionEmpty error is reported only when no backend produced either
// text or tables.
func (s *Service) mergeText(byBackend map[string]parse.Result) ([]model.TextBlock, *common.StageError) {
	for _, name := range s.policy.Priority {
		if r, ok := byBackend[name]; ok && len(r.TextBlocks) > 0 {
			return r.TextBlocks, nil
		}
	}
	for _, r := range byBackend {
		if len(r.TextBlocks) > 0 {
			return r.TextBlocks, nil
		}
	}
	for _, r := range byBackend {
		if len(r.TableBlocks) > 0 {
			return nil, nil
		}
	}
	err := common.NewStageError("blockify", common.ErrorExtractionEmpty, "no backend produced any text blocks", nil)
	return nil, &err
}

// mergeTables unions tables across all succeeding backends: specialist
// backends' tables are inserted first, then each remaining backend's
// tables are appended only when not similar to an already-kept table on
// the same page.
func (s *Service) mergeTables(byBackend map[string]parse.Result) []model.TableBlock {
	specialist := make(map[string]bool, len(s.policy.TableSpecialists))
	var merged []model.TableBlock

	for _, name := range s.policy.TableSpecialists {
		specialist[name] = true
		if r, ok := byBackend[name]; ok {
			merged = append(merged, r.TableBlocks...)
		}
	}

	for _, name := range s.policy.Priority {
		if specialist[name] {
			continue
		}
		r, ok := byBackend[name]
		if !ok {
			continue
		}
		for _, t := range r.TableBlocks {
			if !similarToAny(merged, t) {
				merged = append(merged, t)
			}
		}
	}

	return merged
}

func similarToAny(kept []model.TableBlock, t model.TableBlock) bool {
	for _, k := range kept {
		if Similar(k, t) {
			return true
		}
	}
	return false
}

// Similar reports whether two tables on the same page are near-duplicate
// extractions of the same underlying table: row counts within 2, column
// counts within 1, and an identical nonempty first cell in their first
// data row. Tables on different pages are never similar.
func Similar(a, b model.TableBlock) bool {
	if a.PageNumber != b.PageNumber {
		return false
	}
	if absInt(len(a.Data)-len(b.Data)) > 2 {
		return false
	}
	if absInt(a.Width()-b.Width()) > 1 {
		return false
	}
	return firstDataCell(a) != "" && firstDataCell(a) == firstDataCell(b)
}

func firstDataCell(t model.TableBlock) string {
	if len(t.Data) == 0 || len(t.Data[0]) == 0 {
		return ""
	}
	return t.Data[0][0]
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// dedupeText drops text blocks that are exact duplicates of an
// already-kept block on the same page — the common case when two backends
// happen to agree verbatim on a simple page.
func dedupeText(blocks []model.TextBlock) []model.TextBlock {
	seen := make(map[string]bool, len(blocks))
	out := make([]model.TextBlock, 0, len(blocks))
	for _, b := range blocks {
		key := fmt.Sprintf("%d|%s", b.PageNumber, b.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}
