package rerankd

// RerankRequest holds the rerank call parameters.
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	// TopN limits the number of returned results (0 = all).
	TopN int `json:"top_n,omitempty"`
	// MinScore drops results below the threshold when non-nil.
	MinScore *float64 `json:"min_score,omitempty"`
}

// DocumentInfo wraps a document's text.
type DocumentInfo struct {
	Text string `json:"text"`
}

// RankResult is a single scored document.
type RankResult struct {
	Index    int          `json:"index"`
	Document DocumentInfo `json:"document"`
	Score    float64      `json:"score"`
}

// RerankResponse is the ranked result list, highest score first.
type RerankResponse struct {
	Results []RankResult `json:"results"`
}

// Status is the service status payload.
type Status struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Version string `json:"version"`
}

// Health is the aggregated health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
