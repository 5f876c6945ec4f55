// Package detect runs full pairwise similarity passes over a corpus snapshot.
package detect

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/utsushi/internal/embedding"
	"github.com/hyperjump/utsushi/internal/models"
	"github.com/hyperjump/utsushi/internal/similarity"
	"github.com/hyperjump/utsushi/internal/store"
	"github.com/hyperjump/utsushi/internal/syntax"
	"go.uber.org/zap"
)

// Orchestrator runs detection passes: snapshot the store, build per-submission
// representations once, score all unordered pairs, and report those at or
// above threshold. Cost is O(n) representation builds plus O(n²) pair
// comparisons, so runtime grows quadratically with cohort size.
type Orchestrator struct {
	store    store.Store
	embedder embedding.Embedder
	scorer   *similarity.Scorer
	workers  int
	logger   *zap.Logger // optional; when set, logs run progress
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets a logger for run progress and degraded-submission warnings.
func WithLogger(l *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithWorkers bounds embedding and pair-scoring parallelism.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.workers = n }
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(st store.Store, embedder embedding.Embedder, scorer *similarity.Scorer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		embedder: embedder,
		scorer:   scorer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// representation holds the derived forms of one submission, computed exactly
// once per run and reused for every pair involving that submission.
type representation struct {
	tokens   []syntax.Token
	tokensOK bool
	vector   []float32
	vectorOK bool
}

// pairScore is the outcome of scoring one unordered pair.
type pairScore struct {
	a, b     int // snapshot indices, a < b
	score    float64
	caveat   models.Caveat
	excluded bool
}

// Run executes one full detection pass at the given threshold. The pass is
// read-only for the store: it operates on one snapshot, so submissions
// written while the pass is computing do not affect it. A cancelled context
// aborts the pass and returns the context error; partial results are never
// returned as if complete.
func (o *Orchestrator) Run(ctx context.Context, threshold float64) (*models.DetectionReport, error) {
	runID := uuid.New().String()
	start := time.Now()

	snapshot, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("store unavailable: %w", err)
	}
	n := len(snapshot)
	if o.logger != nil {
		o.logger.Debug("detection run started",
			zap.String("run_id", runID),
			zap.Int("submissions", n),
			zap.Float64("threshold", threshold))
	}

	report := &models.DetectionReport{
		RunID:        runID,
		Threshold:    threshold,
		Submissions:  n,
		SimilarPairs: []models.ComparisonResult{},
	}
	if n < 2 {
		report.RunTime = time.Since(start).Milliseconds()
		return report, nil
	}

	diags := &models.Diagnostics{}
	reps, err := o.buildRepresentations(ctx, snapshot, diags)
	if err != nil {
		return nil, err
	}

	scores, err := o.scorePairs(ctx, reps)
	if err != nil {
		return nil, err
	}

	for _, ps := range scores {
		if ps.excluded {
			diags.PairsExcluded++
			continue
		}
		if ps.score < threshold {
			continue
		}
		a, b := snapshot[ps.a].StudentID, snapshot[ps.b].StudentID
		report.SimilarPairs = append(report.SimilarPairs, models.ComparisonResult{
			StudentA: a,
			StudentB: b,
			Score:    ps.score,
			Caveat:   ps.caveat,
		})
		switch ps.caveat {
		case models.CaveatSemanticOnly:
			diags.SemanticOnlyPairs = append(diags.SemanticOnlyPairs, [2]string{a, b})
		case models.CaveatStructuralOnly:
			diags.StructuralOnlyPairs = append(diags.StructuralOnlyPairs, [2]string{a, b})
		}
	}

	sort.Slice(report.SimilarPairs, func(i, j int) bool {
		pi, pj := report.SimilarPairs[i], report.SimilarPairs[j]
		if pi.Score != pj.Score {
			return pi.Score > pj.Score
		}
		if pi.StudentA != pj.StudentA {
			return pi.StudentA < pj.StudentA
		}
		return pi.StudentB < pj.StudentB
	})

	report.PairsEvaluated = n * (n - 1) / 2
	if !diags.Empty() {
		report.Diagnostics = diags
	}
	report.RunTime = time.Since(start).Milliseconds()
	if o.logger != nil {
		o.logger.Info("detection run finished",
			zap.String("run_id", runID),
			zap.Int("submissions", n),
			zap.Int("pairs_evaluated", report.PairsEvaluated),
			zap.Int("similar_pairs", len(report.SimilarPairs)),
			zap.Int64("run_time_ms", report.RunTime))
	}
	return report, nil
}

// buildRepresentations tokenizes and embeds every snapshot entry exactly once.
// Tokenization is cheap and runs inline; embedding is the expensive step and
// is parallelized per submission before the pairwise stage begins. Failures
// degrade the individual submission (recorded in diags), never the run.
func (o *Orchestrator) buildRepresentations(ctx context.Context, snapshot []models.Submission, diags *models.Diagnostics) ([]representation, error) {
	reps := make([]representation, len(snapshot))

	for i, sub := range snapshot {
		tokens, err := syntax.Tokenize(sub.Code)
		if err != nil {
			diags.Unparsed = append(diags.Unparsed, sub.StudentID)
			if o.logger != nil {
				o.logger.Warn("submission failed tokenization",
					zap.String("student_id", sub.StudentID), zap.Error(err))
			}
			continue
		}
		reps[i].tokens = tokens
		reps[i].tokensOK = true
	}

	embedErrs := make([]error, len(snapshot))
	indexCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.workerCount(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				vec, err := o.embedder.Embed(ctx, snapshot[i].Code)
				if err != nil {
					embedErrs[i] = err
					continue
				}
				reps[i].vector = vec
				reps[i].vectorOK = true
			}
		}()
	}
	for i := range snapshot {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detection run aborted: %w", err)
	}
	for i, err := range embedErrs {
		if err != nil && ctx.Err() == nil {
			diags.Unembedded = append(diags.Unembedded, snapshot[i].StudentID)
			if o.logger != nil {
				o.logger.Warn("submission failed embedding",
					zap.String("student_id", snapshot[i].StudentID), zap.Error(err))
			}
		}
	}
	return reps, nil
}

// scorePairs evaluates all n(n-1)/2 unordered pairs. Each pair is independent
// once representations exist, so scoring is spread over a worker pool; workers
// check for cancellation between pair evaluations. Results land in fixed slice
// positions, keeping the output deterministic regardless of scheduling.
func (o *Orchestrator) scorePairs(ctx context.Context, reps []representation) ([]pairScore, error) {
	n := len(reps)
	pairs := make([]pairScore, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pairScore{a: i, b: j})
		}
	}

	pairCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.workerCount(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pairCh {
				if ctx.Err() != nil {
					return
				}
				pairs[idx] = o.scorePair(reps, pairs[idx])
			}
		}()
	}
	for idx := range pairs {
		select {
		case pairCh <- idx:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(pairCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detection run aborted: %w", err)
	}
	return pairs, nil
}

// scorePair applies the degradation policy: composite when both terms exist,
// single-term with an explicit caveat when one side lost a representation,
// excluded when neither term can be computed.
func (o *Orchestrator) scorePair(reps []representation, ps pairScore) pairScore {
	ra, rb := reps[ps.a], reps[ps.b]
	structOK := ra.tokensOK && rb.tokensOK
	semOK := ra.vectorOK && rb.vectorOK

	switch {
	case structOK && semOK:
		ps.score = o.scorer.Composite(
			o.scorer.Structural(ra.tokens, rb.tokens),
			similarity.Cosine(ra.vector, rb.vector),
		)
	case semOK:
		ps.score = similarity.Cosine(ra.vector, rb.vector)
		ps.caveat = models.CaveatSemanticOnly
	case structOK:
		ps.score = o.scorer.Structural(ra.tokens, rb.tokens)
		ps.caveat = models.CaveatStructuralOnly
	default:
		ps.excluded = true
		return ps
	}
	ps.score = similarity.Round6(ps.score)
	return ps
}

func (o *Orchestrator) workerCount() int {
	if o.workers > 0 {
		return o.workers
	}
	return runtime.GOMAXPROCS(0)
}
