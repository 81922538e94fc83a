package section

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/finxtract/finxtract/internal/model"
)

// EmbeddingScorer is a pluggable extension point for re-ranking section
// boundary candidates by semantic similarity to a reference heading
// embedding, rather than by pattern match alone. It is optional: the
// pattern-only Locator works without one, and no trained classifier is
// required to satisfy it — any externally supplied scoring function
// will do.
type EmbeddingScorer interface {
	Rescore(blocks []model.TextBlock, candidates []model.Section) []model.Section
}

// referenceHeading is one canonical example heading per section type,
// used as the similarity target for rescoring.
var referenceHeadings = map[model.SectionType]string{
	model.SectionIncomeStatement: "Consolidated income statement",
	model.SectionBalanceSheet:    "Consolidated statement of financial position",
	model.SectionCashFlow:        "Consolidated statement of cash flows",
	model.SectionNotes:           "Notes to the financial statements",
	model.SectionRevenue:         "Revenue by segment",
	model.SectionEBITDA:          "Adjusted EBITDA reconciliation",
	model.SectionBorrowings:      "Borrowings and other loans",
}

// OllamaScorer calls a local Ollama embeddings endpoint to compute cosine
// similarity between a candidate heading's text and its section type's
// reference heading, adjusting Confidence and marking every candidate it
// rescores as DetectionHybrid (still pattern matched, but
// embedding-checked); similarity below minSimilarity adds nothing to the
// score.
type OllamaScorer struct {
	client          *http.Client
	baseURL         string
	model           string
	regexWeight     float64
	embeddingWeight float64
	minSimilarity   float64
	cache           map[string][]float64
}

// NewOllamaScorer builds a scorer against a running Ollama instance.
// regexWeight and embeddingWeight blend the pattern match's confidence
// with cosine similarity into the hybrid score; minSimilarity is the
// threshold below which the similarity term is dropped from that score.
func NewOllamaScorer(baseURL, embeddingModel string, regexWeight, embeddingWeight, minSimilarity float64) *OllamaScorer {
	return &OllamaScorer{
		client:          &http.Client{Timeout: 15 * time.Second},
		baseURL:         baseURL,
		model:           embeddingModel,
		regexWeight:     regexWeight,
		embeddingWeight: embeddingWeight,
		minSimilarity:   minSimilarity,
		cache:           make(map[string][]float64),
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Rescore queries embeddings for each candidate's heading text and its
// section type's reference heading, then blends the pattern confidence
// with cosine similarity: regexWeight*regexScore +
// embeddingWeight*similarity. Every rescored candidate is marked
// DetectionHybrid; one whose similarity falls below minSimilarity is
// still kept (rescoring never drops a pattern match outright), just with
// a correspondingly lower hybrid score.
func (s *OllamaScorer) Rescore(blocks []model.TextBlock, candidates []model.Section) []model.Section {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := make([]model.Section, len(candidates))
	for i, c := range candidates {
		ref, ok := referenceHeadings[c.SectionType]
		if !ok {
			out[i] = c
			continue
		}

		headingVec, err1 := s.embed(ctx, c.SectionName)
		refVec, err2 := s.embed(ctx, ref)
		if err1 != nil || err2 != nil {
			// embedding service unreachable: leave the pattern match as-is
			out[i] = c
			continue
		}

		similarity := cosineSimilarity(headingVec, refVec)
		if similarity >= s.minSimilarity {
			c.Confidence = s.regexWeight*c.Confidence + s.embeddingWeight*similarity
		} else {
			// inconclusive similarity contributes nothing; only the
			// weighted pattern score remains
			c.Confidence = s.regexWeight * c.Confidence
		}
		c.DetectionMethod = model.DetectionHybrid
		out[i] = c
	}
	return out
}

func (s *OllamaScorer) embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := s.cache[text]; ok {
		return v, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: s.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("section: marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("section: build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("section: embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("section: embed request returned status %d", resp.StatusCode)
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("section: decode embed response: %w", err)
	}

	s.cache[text] = parsed.Embedding
	return parsed.Embedding, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
