// Package llm talks to the OpenAI chat completion API for vocabulary
// generation and example-sentence writing.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/okanehara/vocabdex/pkg/topicgen"
	"github.com/okanehara/vocabdex/pkg/vocab"
)

// maxAvoidPairs caps how many already-known pairs are spelled out in a
// prompt; beyond this the prompt stops growing and dedup falls to the
// caller.
const maxAvoidPairs = 250

const generatorSystemPrompt = "You are a Japanese vocabulary generator. " +
	"Respond ONLY with valid JSON. No markdown, no code fences, no commentary."

// Client wraps an OpenAI chat model behind the generation interfaces the
// rest of the program consumes.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	log         *slog.Logger
}

// NewClient builds a Client for the given model. Temperature applies to
// every request.
func NewClient(apiKey, model string, temperature float64, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:         openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
		log:         log,
	}
}

// GenerateBatch asks the model for a batch of vocabulary items as JSON.
// The raw reply text is returned untouched; repair and parsing are the
// caller's concern.
func (c *Client) GenerateBatch(ctx context.Context, req topicgen.BatchRequest) (string, error) {
	payload := map[string]any{
		"instruction": fmt.Sprintf("Generate %d unique Japanese vocabulary items for the topic.", req.Count),
		"topic":       req.Topic,
		"count":       req.Count,
		"avoid_pairs": avoidPairs(req.Avoid),
		"rules":       req.Rules,
		"schema": map[string]any{
			"items": []map[string]string{{
				"term":    "日本語の単語",
				"reading": "かな",
				"meaning": "english meaning",
				"example": "日本語の例文。",
				"jlpt":    "N3",
			}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal batch request: %w", err)
	}

	reply, err := c.complete(ctx, generatorSystemPrompt, string(body), true)
	if err != nil {
		return "", fmt.Errorf("generate batch for %q: %w", req.Topic, err)
	}
	return reply, nil
}

// avoidPairs renders known keys as "term|reading; " entries, capped so the
// prompt stays bounded no matter how large the collection grows.
func avoidPairs(keys []vocab.Key) string {
	var b strings.Builder
	for i, k := range keys {
		if i >= maxAvoidPairs {
			break
		}
		b.WriteString(k.Term)
		b.WriteString("|")
		b.WriteString(k.Reading)
		b.WriteString("; ")
	}
	return b.String()
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
