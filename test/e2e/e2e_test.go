package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/utsushi/internal/config"
	"github.com/hyperjump/utsushi/internal/detect"
	"github.com/hyperjump/utsushi/internal/embedding"
	"github.com/hyperjump/utsushi/internal/models"
	"github.com/hyperjump/utsushi/internal/server"
	"github.com/hyperjump/utsushi/internal/similarity"
	"github.com/hyperjump/utsushi/internal/store"
	"github.com/hyperjump/utsushi/internal/syntax"
	"go.uber.org/zap"
)

func TestFixturesAreParseable(t *testing.T) {
	for _, f := range Cohort() {
		if _, err := syntax.Tokenize(f.Code); err != nil {
			t.Errorf("fixture %s does not tokenize: %v", f.StudentID, err)
		}
	}
}

func TestRenamedFixtureHasIdenticalStructure(t *testing.T) {
	base, err := syntax.Tokenize(BaseSort)
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := syntax.Tokenize(RenamedSort)
	if err != nil {
		t.Fatal(err)
	}
	if len(base) != len(renamed) {
		t.Fatalf("token counts differ: %d vs %d", len(base), len(renamed))
	}
	for i := range base {
		if base[i] != renamed[i] {
			t.Fatalf("token %d differs: %q vs %q", i, base[i], renamed[i])
		}
	}
}

func newE2EServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Dimensions = 8

	st := store.NewMemoryStore()
	embedder := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	scorer, err := similarity.NewScorer(cfg.Detect.AlphaOrDefault(), similarity.Metric(cfg.Detect.StructuralMetric))
	if err != nil {
		t.Fatal(err)
	}
	orchestrator := detect.NewOrchestrator(st, embedder, scorer, detect.WithWorkers(4))
	srv := server.NewServer(st, orchestrator, embedder, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func submitFixture(t *testing.T, baseURL string, f Fixture) {
	t.Helper()
	body, err := json.Marshal(models.SubmitRequest{StudentID: f.StudentID, Code: f.Code})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(baseURL+"/submit_code", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("submit %s: %v", f.StudentID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit %s: status %d", f.StudentID, resp.StatusCode)
	}
}

func runDetection(t *testing.T, baseURL string, threshold float64) *models.DetectionReport {
	t.Helper()
	url := fmt.Sprintf("%s/detect_plagiarism?threshold=%g", baseURL, threshold)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detect: status %d", resp.StatusCode)
	}
	var report models.DetectionReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return &report
}

func hasPair(report *models.DetectionReport, a, b string) bool {
	for _, p := range report.SimilarPairs {
		if p.StudentA == a && p.StudentB == b {
			return true
		}
	}
	return false
}

func TestE2E_DetectsCopiedSubmissions(t *testing.T) {
	ts := newE2EServer(t)
	for _, f := range Cohort() {
		submitFixture(t, ts.URL, f)
	}

	// The byte-identical copy and the rename-only copy all share one token
	// sequence, so every pair among them scores a full 1.0: structure and
	// embedding both key on the normalized tokens.
	exact := runDetection(t, ts.URL, 1.0)
	if exact.Submissions != 5 || exact.PairsEvaluated != 10 {
		t.Errorf("expected 5 submissions and 10 pairs, got %d and %d", exact.Submissions, exact.PairsEvaluated)
	}
	if len(exact.SimilarPairs) != 3 ||
		!hasPair(exact, "alice", "dana") ||
		!hasPair(exact, "alice", "rena") ||
		!hasPair(exact, "dana", "rena") {
		t.Errorf("expected exactly the three copied-sort pairs at threshold 1.0, got %+v", exact.SimilarPairs)
	}
	for _, p := range exact.SimilarPairs {
		if p.Score != 1.0 {
			t.Errorf("copied submissions must score 1.0, got %v for (%s, %s)", p.Score, p.StudentA, p.StudentB)
		}
	}

	// The rename-only copy must clear the default threshold.
	renamed := runDetection(t, ts.URL, 0.90)
	if !hasPair(renamed, "alice", "rena") {
		t.Errorf("expected the renamed copy pair (alice, rena) at threshold 0.90, got %+v", renamed.SimilarPairs)
	}
	if !hasPair(renamed, "dana", "rena") {
		t.Errorf("expected (dana, rena) as well, got %+v", renamed.SimilarPairs)
	}
}

func TestE2E_RepeatedRunsAreDeterministic(t *testing.T) {
	ts := newE2EServer(t)
	for _, f := range Cohort() {
		submitFixture(t, ts.URL, f)
	}

	first := runDetection(t, ts.URL, 0.0)
	second := runDetection(t, ts.URL, 0.0)
	if first.RunID == second.RunID {
		t.Error("each run must get a fresh run ID")
	}
	if len(first.SimilarPairs) != len(second.SimilarPairs) {
		t.Fatalf("pair counts differ between runs: %d vs %d", len(first.SimilarPairs), len(second.SimilarPairs))
	}
	for i := range first.SimilarPairs {
		if first.SimilarPairs[i] != second.SimilarPairs[i] {
			t.Errorf("pair %d differs between runs: %+v vs %+v", i, first.SimilarPairs[i], second.SimilarPairs[i])
		}
	}
}

func TestE2E_ClearResetsCorpus(t *testing.T) {
	ts := newE2EServer(t)
	for _, f := range Cohort() {
		submitFixture(t, ts.URL, f)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/submissions", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear: status %d", resp.StatusCode)
	}

	report := runDetection(t, ts.URL, 0.0)
	if report.Submissions != 0 || len(report.SimilarPairs) != 0 {
		t.Errorf("expected empty corpus after clear, got %+v", report)
	}
}
