package genomics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/shared/metrics"
)

// Engine computes the result of one analysis over a set of variants.
// Real engines (variant callers, pharmacogenomic interpreters) are
// external systems; SummaryEngine is the built-in deterministic one.
type Engine interface {
	Analyze(ctx context.Context, analysisType string, variants []Variant) (map[string]any, error)
}

// SummaryEngine aggregates variant records without any real genomic
// interpretation. Same input always produces the same result.
type SummaryEngine struct{}

// Analyze computes aggregate statistics over the variants.
func (SummaryEngine) Analyze(_ context.Context, analysisType string, variants []Variant) (map[string]any, error) {
	switch analysisType {
	case AnalysisTypeVariantSummary, AnalysisTypePharmacogenomic, AnalysisTypeAncestry:
	default:
		return nil, fmt.Errorf("unsupported analysis type: %s", analysisType)
	}

	byChromosome := make(map[string]int)
	byGene := make(map[string]int)
	bySignificance := make(map[string]int)
	for _, v := range variants {
		byChromosome[v.Chromosome]++
		if v.Gene != "" {
			byGene[v.Gene]++
		}
		if v.ClinicalSignificance != "" {
			bySignificance[v.ClinicalSignificance]++
		}
	}

	result := map[string]any{
		"analysis_type":            analysisType,
		"variant_count":            len(variants),
		"variants_by_chromosome":   byChromosome,
		"variants_by_significance": bySignificance,
		"genes_affected":           sortedKeys(byGene),
	}

	if analysisType == AnalysisTypePharmacogenomic {
		result["genes_with_variants"] = byGene
	}

	return result, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Runner drives pending analyses to completion in the background.
type Runner struct {
	repo     *Repository
	engine   Engine
	log      *zap.Logger
	interval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRunner creates an analysis runner. A nil engine falls back to
// SummaryEngine.
func NewRunner(repo *Repository, engine Engine, log *zap.Logger) *Runner {
	if engine == nil {
		engine = SummaryEngine{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		repo:     repo,
		engine:   engine,
		log:      log,
		interval: 5 * time.Second,
		stop:     make(chan struct{}),
	}
}

// Start launches the background polling loop.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.runPending(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for in-flight work.
func (r *Runner) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Runner) runPending(ctx context.Context) {
	pending, err := r.repo.ClaimPendingAnalyses(ctx, 10)
	if err != nil {
		r.log.Warn("failed to claim pending analyses", zap.Error(err))
		return
	}

	for _, a := range pending {
		r.Run(ctx, a)
	}
}

// Run executes a single analysis through its full lifecycle.
func (r *Runner) Run(ctx context.Context, a Analysis) {
	// A concurrent runner may have claimed it first.
	if err := r.repo.MarkAnalysisRunning(ctx, a.ID); err != nil {
		return
	}

	metrics.RecordAnalysisStarted(a.AnalysisType)
	log := r.log.With(
		zap.String("analysis_id", a.ID.String()),
		zap.String("analysis_type", a.AnalysisType),
	)

	variants, err := r.repo.ListVariants(ctx, a.DataID)
	if err != nil {
		log.Error("failed to load variants", zap.Error(err))
		r.fail(ctx, a, "failed to load variants")
		return
	}

	result, err := r.engine.Analyze(ctx, a.AnalysisType, variants)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		r.fail(ctx, a, err.Error())
		return
	}

	if err := r.repo.CompleteAnalysis(ctx, a.ID, result); err != nil {
		log.Error("failed to record analysis result", zap.Error(err))
		return
	}

	metrics.RecordAnalysisCompleted(a.AnalysisType, string(AnalysisStatusCompleted))
	log.Info("analysis completed", zap.Int("variant_count", len(variants)))
}

func (r *Runner) fail(ctx context.Context, a Analysis, message string) {
	if err := r.repo.FailAnalysis(ctx, a.ID, message); err != nil {
		r.log.Error("failed to record analysis failure", zap.Error(err))
		return
	}
	metrics.RecordAnalysisCompleted(a.AnalysisType, string(AnalysisStatusFailed))
}
