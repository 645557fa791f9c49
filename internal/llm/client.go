package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// EmbeddingDim is the dimensionality of the embedding model output.
const EmbeddingDim = 768

// Client is the gateway contract the pipeline depends on. A single
// instance is shared process-wide and is safe for concurrent use.
type Client interface {
	// Chat sends a system+user prompt pair to the given tier and
	// returns the raw model text.
	Chat(ctx context.Context, tier ModelTier, temperature float32, system, user string) (string, error)
	// ChatJSON is Chat with JSON response mode; markdown code fences
	// are stripped from the result.
	ChatJSON(ctx context.Context, tier ModelTier, temperature float32, system, user string) (string, error)
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns embedding vectors for several texts in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Close releases resources held by the client.
	Close() error
}

// GeminiClient implements Client over the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates the process-wide Gemini gateway.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// Chat sends the prompt to the tier's model and returns the response text.
func (c *GeminiClient) Chat(ctx context.Context, tier ModelTier, temperature float32, system, user string) (string, error) {
	return c.generate(ctx, tier, temperature, system, user, "")
}

// ChatJSON forces application/json output and strips code fences.
func (c *GeminiClient) ChatJSON(ctx context.Context, tier ModelTier, temperature float32, system, user string) (string, error) {
	text, err := c.generate(ctx, tier, temperature, system, user, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GeminiClient) generate(ctx context.Context, tier ModelTier, temperature float32, system, user, mimeType string) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	var text string
	err := withRetry(ctx, c.config, "chat("+modelName+")", func(ctx context.Context) error {
		model := c.client.GenerativeModel(modelName)
		model.SetTemperature(temperature)
		if system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		if mimeType != "" {
			model.ResponseMIMEType = mimeType
		}

		resp, err := model.GenerateContent(ctx, genai.Text(user))
		if err != nil {
			return err
		}
		text, err = extractTextFromResponse(resp)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Embed returns the embedding vector for one text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := withRetry(ctx, c.config, "embed", func(ctx context.Context) error {
		em := c.client.EmbeddingModel(c.config.EmbeddingModel)
		res, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if res.Embedding == nil {
			return fmt.Errorf("empty embedding response")
		}
		vec = res.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds several texts in one upstream call, preserving order.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vecs [][]float32
	err := withRetry(ctx, c.config, "embed_batch", func(ctx context.Context) error {
		em := c.client.EmbeddingModel(c.config.EmbeddingModel)
		batch := em.NewBatch()
		for _, t := range texts {
			batch.AddContent(genai.Text(t))
		}
		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return err
		}
		if len(res.Embeddings) != len(texts) {
			return fmt.Errorf("embedding count mismatch: got %d, want %d", len(res.Embeddings), len(texts))
		}
		vecs = make([][]float32, len(res.Embeddings))
		for i, e := range res.Embeddings {
			vecs[i] = e.Values
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse joins the text parts of the first candidate.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
