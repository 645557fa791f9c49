package chains

import (
	"context"
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// Prompt slot fallbacks when the brief leaves audience or goal empty.
const (
	defaultAudience = "転職を検討しているエンジニア"
	defaultGoal     = "採用広報、企業文化の紹介"
)

// QueryGenerator produces the whitespace-joined keyword string used as
// the hybrid-search query.
type QueryGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewQueryGenerator wires the query-generator chain.
func NewQueryGenerator(client llm.Client) *QueryGenerator {
	return &QueryGenerator{
		client: client,
		system: prompts.MustGet("query.json", "generate-query-system"),
		user:   prompts.MustGet("query.json", "generate-query-user"),
	}
}

// Run generates the category-optimized search query.
func (c *QueryGenerator) Run(ctx context.Context, input types.StructuredInput, category types.ArticleType) (string, error) {
	system := prompts.Format(c.system, map[string]string{
		"Category": string(category),
		"Theme":    input.Theme,
		"Audience": orNone(input.Audience, defaultAudience),
		"Goal":     orNone(input.Goal, defaultGoal),
		"Keywords": joinList(input.Keywords),
	})

	raw, err := c.client.Chat(ctx, llm.TierLite, 0.3, system, c.user)
	if err != nil {
		return "", err
	}
	return CleanQuery(raw), nil
}

// CleanQuery strips label prefixes and quoting the model tends to add
// around the keyword list.
func CleanQuery(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, prefix := range []string{"search_query:", "クエリ:", "検索クエリ:", "\"", "'"} {
		if strings.HasPrefix(strings.ToLower(cleaned), strings.ToLower(prefix)) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
		}
	}
	return strings.Trim(cleaned, "\"'")
}
