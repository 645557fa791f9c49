// Package chains implements the prompt chains of the generation
// pipeline. Each chain is a pure unit wrapping a prompt template, a
// model-tier choice, and a parser; it holds no state beyond its wiring.
package chains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/schemas"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// validate checks decoded chain outputs against their struct tags.
var validate = validator.New()

// runJSON executes one JSON-producing chain call: prompt the gateway,
// validate the raw output against the chain's JSON Schema, decode, and
// validate the decoded struct. Shape mismatches are KindSchema and are
// never retried.
func runJSON[T any](ctx context.Context, client llm.Client, tier llm.ModelTier, temperature float32, system, user, schema string) (T, error) {
	var out T

	raw, err := client.ChatJSON(ctx, tier, temperature, system, user)
	if err != nil {
		return out, err
	}

	if err := schemas.Validate(schema, raw); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return out, types.NewError(types.KindSchema, "model output did not match schema", err)
		}
		return out, fmt.Errorf("schema check failed: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, types.NewError(types.KindSchema, "failed to decode model output", err)
	}
	if err := validate.Struct(out); err != nil {
		return out, types.NewError(types.KindSchema, "model output failed field validation", err)
	}
	return out, nil
}

// joinList renders a string list for prompt interpolation.
func joinList(items []string) string {
	if len(items) == 0 {
		return "なし"
	}
	return strings.Join(items, ", ")
}

// joinQuotes renders interview quotes the way the prompts expect.
func joinQuotes(quotes []types.InterviewQuote) string {
	if len(quotes) == 0 {
		return "なし"
	}
	parts := make([]string, len(quotes))
	for i, q := range quotes {
		parts[i] = fmt.Sprintf("%s: 「%s」", q.Speaker, q.Quote)
	}
	return strings.Join(parts, ", ")
}

// joinPeople renders people as 名前(役職) pairs.
func joinPeople(people []types.Person) string {
	if len(people) == 0 {
		return "なし"
	}
	parts := make([]string, len(people))
	for i, p := range people {
		parts[i] = fmt.Sprintf("%s(%s)", p.Name, p.Role)
	}
	return strings.Join(parts, ", ")
}

// joinPassages renders reference passages as a numbered block.
func joinPassages(passages []types.Passage) string {
	if len(passages) == 0 {
		return "（参考記事なし）"
	}
	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "### 参考%d\n%s\n\n", i+1, p.Body)
	}
	return strings.TrimSpace(sb.String())
}

// joinExcerpts renders style excerpts as a numbered block.
func joinExcerpts(excerpts []string) string {
	if len(excerpts) == 0 {
		return "（サンプルなし）"
	}
	var sb strings.Builder
	for i, e := range excerpts {
		fmt.Fprintf(&sb, "### サンプル%d\n%s\n\n", i+1, e)
	}
	return strings.TrimSpace(sb.String())
}

// orNone substitutes a default for empty prompt slots.
func orNone(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
