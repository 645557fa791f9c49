package types

import "time"

// StyleKind distinguishes the two kinds of style assets.
type StyleKind string

const (
	// StyleKindProfile is the per-category rulebook. At most one exists
	// per category.
	StyleKindProfile StyleKind = "profile"
	// StyleKindExcerpt is a sample passage used as a style exemplar.
	StyleKindExcerpt StyleKind = "excerpt"
)

// StyleRecord is one row of the style knowledge base.
type StyleRecord struct {
	ID        string      `json:"id"`
	Category  ArticleType `json:"article_type"`
	Kind      StyleKind   `json:"kind"`
	Body      string      `json:"body"`
	Embedding []float32   `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RetrievalBundle is the joined result of the retrieve fan-out: content
// passages, the style rulebook (empty when the category has none), and
// the theme-matched style excerpts.
type RetrievalBundle struct {
	Passages []Passage
	Profile  string
	Excerpts []string
}
