package chains

import (
	"context"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const classifierSchema = `{
	"type": "object",
	"required": ["article_type", "confidence"],
	"properties": {
		"article_type": {"type": "string", "enum": ["ANNOUNCEMENT", "EVENT_REPORT", "INTERVIEW", "CULTURE"]},
		"article_type_ja": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"},
		"suggested_headings": {"type": "array", "items": {"type": "string"}, "maxItems": 4}
	}
}`

// Classification is the classifier chain output.
type Classification struct {
	ArticleType       types.ArticleType `json:"article_type"`
	ArticleTypeJA     string            `json:"article_type_ja"`
	Confidence        float64           `json:"confidence" validate:"gte=0,lte=1"`
	Reason            string            `json:"reason"`
	SuggestedHeadings []string          `json:"suggested_headings"`
}

// Classifier decides the article category from the structured input.
type Classifier struct {
	client llm.Client
	system string
	user   string
}

// NewClassifier wires the classifier chain.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{
		client: client,
		system: prompts.MustGet("classify.json", "classify-system"),
		user:   prompts.MustGet("classify.json", "classify-user"),
	}
}

// Run classifies the parsed brief into one of the four categories.
func (c *Classifier) Run(ctx context.Context, input types.StructuredInput) (Classification, error) {
	user := prompts.Format(c.user, map[string]string{
		"Theme":           input.Theme,
		"KeyPoints":       joinList(input.KeyPoints),
		"People":          joinPeople(input.People),
		"Keywords":        joinList(input.Keywords),
		"InterviewQuotes": joinQuotes(input.InterviewQuotes),
	})

	result, err := runJSON[Classification](ctx, c.client, llm.TierLite, 0.1, c.system, user, classifierSchema)
	if err != nil {
		return Classification{}, err
	}
	if result.ArticleTypeJA == "" {
		result.ArticleTypeJA = result.ArticleType.LabelJA()
	}
	return result, nil
}
