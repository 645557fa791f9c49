package chains

import (
	"context"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const inputParserSchema = `{
	"type": "object",
	"required": ["theme"],
	"properties": {
		"theme": {"type": "string", "minLength": 1},
		"audience": {"type": "string"},
		"goal": {"type": "string"},
		"desired_length": {"type": "integer", "minimum": 0},
		"key_points": {"type": "array", "items": {"type": "string"}},
		"interview_quotes": {"type": "array", "items": {
			"type": "object",
			"required": ["speaker", "quote"],
			"properties": {"speaker": {"type": "string"}, "quote": {"type": "string"}}
		}},
		"data_facts": {"type": "array", "items": {"type": "string"}},
		"people": {"type": "array", "items": {
			"type": "object",
			"required": ["name"],
			"properties": {"name": {"type": "string"}, "role": {"type": "string"}}
		}},
		"keywords": {"type": "array", "items": {"type": "string"}},
		"missing_info": {"type": "array", "items": {"type": "string"}}
	}
}`

// InputParser converts raw input material into a StructuredInput.
type InputParser struct {
	client llm.Client
	system string
	user   string
}

// NewInputParser wires the input-parser chain.
func NewInputParser(client llm.Client) *InputParser {
	return &InputParser{
		client: client,
		system: prompts.MustGet("parsing.json", "parse-input-system"),
		user:   prompts.MustGet("parsing.json", "parse-input-user"),
	}
}

// Run parses the raw material. The desired length defaults to 2000 when
// the material does not state one.
func (c *InputParser) Run(ctx context.Context, inputMaterial string) (types.StructuredInput, error) {
	user := prompts.Format(c.user, map[string]string{"InputMaterial": inputMaterial})

	parsed, err := runJSON[types.StructuredInput](ctx, c.client, llm.TierLite, 0.2, c.system, user, inputParserSchema)
	if err != nil {
		return types.StructuredInput{}, err
	}
	if parsed.DesiredLength <= 0 {
		parsed.DesiredLength = types.DefaultDesiredLength
	}
	return parsed, nil
}
