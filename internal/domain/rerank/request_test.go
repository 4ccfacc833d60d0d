package rerank

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/rerankd/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	req, err := New("what is kubernetes", []string{"a", "b"}, 0, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Query() != "what is kubernetes" {
		t.Errorf("unexpected query: %q", req.Query())
	}
	if len(req.Documents()) != 2 {
		t.Errorf("expected 2 documents, got %d", len(req.Documents()))
	}
	if req.TopN() != 0 {
		t.Errorf("expected topN 0, got %d", req.TopN())
	}
	if _, ok := req.MinScore(); ok {
		t.Error("min_score should not be set")
	}
}

func TestNew_EmptyDocuments(t *testing.T) {
	req, err := New("query", nil, 0, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Documents()) != 0 {
		t.Errorf("expected no documents, got %d", len(req.Documents()))
	}
}

func TestNew_TopNLargerThanDocuments(t *testing.T) {
	req, err := New("query", []string{"a", "b"}, 5, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// topN beyond the document count means "all documents"
	if req.TopN() != 0 {
		t.Errorf("expected topN normalized to 0, got %d", req.TopN())
	}
}

func TestNew_MinScoreSet(t *testing.T) {
	req, err := New("query", []string{"a"}, 0, -1.5, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	min, ok := req.MinScore()
	if !ok {
		t.Fatal("expected min_score to be set")
	}
	if min != -1.5 {
		t.Errorf("expected min_score -1.5, got %f", min)
	}
}

func TestNew_Invalid(t *testing.T) {
	longDoc := strings.Repeat("x", MaxDocumentLength+1)
	manyDocs := make([]string, MaxDocuments+1)

	tests := []struct {
		name      string
		query     string
		documents []string
		topN      int
	}{
		{name: "empty query", query: "", documents: []string{"a"}},
		{name: "query too long", query: strings.Repeat("q", MaxQueryLength+1), documents: []string{"a"}},
		{name: "too many documents", query: "q", documents: manyDocs},
		{name: "document too long", query: "q", documents: []string{longDoc}},
		{name: "negative top_n", query: "q", documents: []string{"a"}, topN: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, tt.documents, tt.topN, 0, false)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}
