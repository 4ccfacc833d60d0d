package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rerankd/internal/domain"
	healthuc "github.com/kailas-cloud/rerankd/internal/usecase/health"
	rerankuc "github.com/kailas-cloud/rerankd/internal/usecase/rerank"
)

// --- Mocks ---

type mockScorer struct {
	scores []float64
	err    error
}

func (m *mockScorer) Score(_ context.Context, _ string, documents []string) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.scores != nil {
		return m.scores, nil
	}
	scores := make([]float64, len(documents))
	return scores, nil
}

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func newTestRouter(scorer rerankuc.Scorer, checker healthuc.ScorerChecker) http.Handler {
	server := NewServer(
		rerankuc.New(scorer),
		healthuc.New(checker),
		"test-model",
		zap.NewNop(),
	)
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func doRerank(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/rerank", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestRerank_RankedResponse(t *testing.T) {
	handler := newTestRouter(&mockScorer{scores: []float64{0.1, 0.9, 0.5}}, nil)

	rr := doRerank(t, handler, `{"query":"q","documents":["low","high","mid"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RerankResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}

	wantIndexes := []int{1, 2, 0}
	wantTexts := []string{"high", "mid", "low"}
	for i := range resp.Results {
		if resp.Results[i].Index != wantIndexes[i] {
			t.Errorf("result %d: index = %d, want %d", i, resp.Results[i].Index, wantIndexes[i])
		}
		if resp.Results[i].Document.Text != wantTexts[i] {
			t.Errorf("result %d: text = %q, want %q", i, resp.Results[i].Document.Text, wantTexts[i])
		}
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestRerank_EmptyDocuments(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, nil)

	rr := doRerank(t, handler, `{"query":"q","documents":[]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp RerankResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(resp.Results))
	}
}

func TestRerank_TopN(t *testing.T) {
	handler := newTestRouter(&mockScorer{scores: []float64{0.1, 0.9, 0.5}}, nil)

	rr := doRerank(t, handler, `{"query":"q","documents":["a","b","c"],"top_n":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp RerankResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Index != 1 {
		t.Errorf("expected top result index 1, got %d", resp.Results[0].Index)
	}
}

func TestRerank_MalformedBody_400(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, nil)

	rr := doRerank(t, handler, `{"query": "q", "documents": [`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestRerank_MissingQuery_400(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, nil)

	rr := doRerank(t, handler, `{"documents":["a"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestRerank_ProviderError_502(t *testing.T) {
	handler := newTestRouter(&mockScorer{err: domain.ErrScoringProviderError}, nil)

	rr := doRerank(t, handler, `{"query":"q","documents":["a"]}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeScoringError {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeScoringError)
	}
}

func TestRerank_RateLimited_429(t *testing.T) {
	handler := newTestRouter(&mockScorer{err: domain.ErrRateLimited}, nil)

	rr := doRerank(t, handler, `{"query":"q","documents":["a"]}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestStatus(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, nil)

	req := httptest.NewRequest("GET", "/", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status == "" {
		t.Error("expected non-empty status")
	}
	if resp.Model != "test-model" {
		t.Errorf("model: got %q, want %q", resp.Model, "test-model")
	}
}

func TestHealthCheck_OK(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, &mockChecker{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if resp.Checks["scorer"] != "ok" {
		t.Errorf("scorer check: got %q, want %q", resp.Checks["scorer"], "ok")
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	handler := newTestRouter(&mockScorer{}, &mockChecker{err: context.DeadlineExceeded})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
