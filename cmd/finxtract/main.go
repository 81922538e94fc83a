// Command finxtract runs the financial-filing extraction and
// adjudication pipeline over one PDF document end to end: parse,
// blockify, locate sections, generate candidates, normalize, validate,
// adjudicate conflicts, derive ratios and growth, and print a run
// summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/adjudicate"
	"github.com/finxtract/finxtract/internal/blockify"
	"github.com/finxtract/finxtract/internal/common"
	"github.com/finxtract/finxtract/internal/currency"
	"github.com/finxtract/finxtract/internal/derive"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/normalize"
	"github.com/finxtract/finxtract/internal/parse"
	"github.com/finxtract/finxtract/internal/pipeline"
	"github.com/finxtract/finxtract/internal/section"
	"github.com/finxtract/finxtract/internal/validate"
)

func main() {
	configPath := flag.String("config", "finxtract.toml", "path to TOML configuration file")
	pdfPath := flag.String("file", "", "path to the PDF filing to extract")
	scratchDir := flag.String("scratch", os.TempDir(), "scratch directory for parser intermediates")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Fprintln(os.Stderr, "finxtract: -file is required")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "finxtract: %v, continuing with defaults\n", err)
		cfg = common.DefaultConfig()
	}

	logger := common.SetupLogger(cfg)
	common.InitLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	info, err := os.Stat(*pdfPath)
	if err != nil {
		logger.Error().Str("file", *pdfPath).Err(err).Msg("input file not found")
		os.Exit(1)
	}
	maxBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	if info.Size() > maxBytes {
		logger.Error().Str("file", *pdfPath).Int64("size", info.Size()).Int64("max", maxBytes).Msg("input file exceeds max_file_size_mb")
		os.Exit(1)
	}

	orchestrator := buildOrchestrator(ctx, cfg, logger, *scratchDir)

	doc := model.TitlePageExtractor{}.Extract(model.NewID("doc"), "")
	doc.FileSize = info.Size()

	runID := uuid.NewString()
	state := orchestrator.Run(ctx, runID, *pdfPath, doc)

	summary := pipeline.Summarize(state)
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal run summary")
		os.Exit(1)
	}
	fmt.Println(string(out))

	if summary.ErrorCount > 0 {
		logger.Warn().Int("errors", summary.ErrorCount).Msg("run completed with recovered stage errors")
	}
}

// buildOrchestrator wires every collaborator from configuration and
// environment. Adjudication providers are only constructed when their
// API key is present in the environment, and the adjudicator itself is
// left nil (a run skips straight to pass-through) when neither provider
// is configured.
func buildOrchestrator(ctx context.Context, cfg *common.Config, logger arbor.ILogger, scratchDir string) *pipeline.Orchestrator {
	inner := parse.NewPDFCPUAdapter(logger, scratchDir)
	parserTimeout := time.Duration(cfg.Parser.TimeoutSeconds) * time.Second
	parsers := []parse.Parser{
		parse.WithTimeout(parse.NewDenseTextAdapter(inner), parserTimeout),
		parse.WithTimeout(inner, parserTimeout),
		parse.WithTimeout(parse.NewTableSpecialistAdapter(inner), parserTimeout),
	}

	var scorer section.EmbeddingScorer
	if cfg.SectionDetection.EmbeddingEnabled {
		scorer = section.NewOllamaScorer(
			cfg.SectionDetection.EmbeddingURL,
			cfg.SectionDetection.EmbeddingModel,
			cfg.SectionDetection.RegexWeight,
			cfg.SectionDetection.EmbeddingWeight,
			cfg.SectionDetection.SimilarityThreshold,
		)
	}

	rates := []currency.Rate{
		{From: "USD", To: "GBP", Rate: decimal.NewFromFloat(0.79)},
		{From: "EUR", To: "GBP", Rate: decimal.NewFromFloat(0.86)},
	}

	adjudicator := buildAdjudicator(ctx, cfg, logger)

	policy := blockify.DefaultPolicy
	if len(cfg.Parser.Priority) > 0 {
		policy.Priority = cfg.Parser.Priority
	}
	policy.FallbackOnly = cfg.Parser.FallbackOnly

	deriver := derive.New(
		logger,
		decimal.NewFromFloat(cfg.Validation.YoYGrowthMin),
		decimal.NewFromFloat(cfg.Validation.YoYGrowthMax),
	)

	return pipeline.New(
		parsers,
		blockify.New(policy),
		section.New(scorer),
		normalize.New(currency.NewStaticTable(rates), cfg.Normalization.BaseCurrency, cfg.Normalization.BaseScale, logger),
		validate.New(),
		adjudicator,
		deriver,
		logger,
	)
}

// buildAdjudicator constructs the LLM adjudication layer only when at
// least one provider's API key is present in the environment, treating
// missing credentials as "feature disabled" rather than a startup
// failure.
func buildAdjudicator(ctx context.Context, cfg *common.Config, logger arbor.ILogger) *adjudicate.Adjudicator {
	providerConfig := adjudicate.ProviderConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.LLM.MaxRetries,
	}
	geminiConfig := providerConfig
	geminiConfig.Model = "gemini-3-flash-preview"

	claudeKey, geminiKey := resolveProviderKeys(ctx)

	providers, err := adjudicate.Factory(
		ctx,
		claudeKey,
		providerConfig,
		geminiKey,
		geminiConfig,
		logger,
	)
	if err != nil || len(providers) == 0 {
		logger.Warn().Msg("no LLM adjudication provider configured, conflicts will pass through unresolved")
		return nil
	}

	workers := cfg.Performance.MaxWorkers
	if workers <= 0 {
		workers = common.DefaultMaxWorkers
	}
	if !cfg.Performance.ParallelProcessing {
		workers = 1
	}
	pool := adjudicate.NewPool(workers, logger)
	return adjudicate.New(providers, pool, logger)
}

// resolveProviderKeys reads provider API keys from the environment,
// falling back to the local secret cache for any key the environment
// does not carry.
func resolveProviderKeys(ctx context.Context) (claudeKey, geminiKey string) {
	claudeKey = os.Getenv("ANTHROPIC_API_KEY")
	geminiKey = os.Getenv("GEMINI_API_KEY")
	if claudeKey != "" && geminiKey != "" {
		return claudeKey, geminiKey
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return claudeKey, geminiKey
	}
	store, err := common.NewBadgerSecretStore(filepath.Join(cacheDir, "finxtract", "secrets"))
	if err != nil {
		return claudeKey, geminiKey
	}
	defer store.Close()

	claudeKey, _ = common.ResolveAPIKey(ctx, store, "anthropic_api_key", claudeKey)
	geminiKey, _ = common.ResolveAPIKey(ctx, store, "gemini_api_key", geminiKey)
	return claudeKey, geminiKey
}
