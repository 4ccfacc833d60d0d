package rerank

// Result is a single scored document.
// Index is the document's position in the original request list.
type Result struct {
	index int
	text  string
	score float64
}

// NewResult creates a scored result.
func NewResult(index int, text string, score float64) Result {
	return Result{index: index, text: text, score: score}
}

// Index returns the document's original position.
func (r *Result) Index() int { return r.index }

// Text returns the document text.
func (r *Result) Text() string { return r.text }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }
