// Package rerankd provides a Go client for the rerankd document
// reranking service.
//
//	client := rerankd.New("http://localhost:8000", rerankd.WithAPIKey("secret"))
//	resp, _ := client.Rerank(ctx, rerankd.RerankRequest{
//	    Query:     "how do I install Go",
//	    Documents: []string{"Go installation guide", "Cooking with gas"},
//	})
//	for _, r := range resp.Results {
//	    fmt.Println(r.Index, r.Score, r.Document.Text)
//	}
//
// Results are ordered by descending relevance score; each result carries
// the document's position in the request as Index.
package rerankd
