package match

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultModel = "gpt-4o-mini"

	systemPrompt = "You are a recruiting assistant. Score how well a resume fits " +
		"a job posting on a 0-100 scale. Respond with JSON only: " +
		`{"score": <0-100>, "summary": "<one sentence>", "strengths": [...], "gaps": [...]}`
)

var ErrAPIKeyNotSet = errors.New("scoring API key not set")

// OpenAIOracle scores resume/vacancy pairs with a chat completion. The
// resilience around connector HTTP calls does not apply here; the runner's
// backend-unreachable handling is the guard for this dependency.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

func NewOpenAIOracle(apiKey, model string) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIOracle{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIOracle) Score(ctx context.Context, resumeText, jobText string) (Score, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("RESUME:\n" + resumeText + "\n\nJOB POSTING:\n" + jobText),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return Score{}, classify(err)
	}
	if len(completion.Choices) == 0 {
		return Score{}, CallFailed("no completion choices returned")
	}

	var s Score
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &s); err != nil {
		return Score{}, CallFailed("bad score payload: %v", err)
	}
	return s, nil
}

// classify separates a dead backend (transport failures, 5xx) from a failure
// scoped to this one call (4xx, bad payload).
func classify(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return BackendUnreachable("openai status %d: %v", apiErr.StatusCode, err)
		}
		return CallFailed("openai status %d: %v", apiErr.StatusCode, err)
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) {
		return BackendUnreachable("%v", err)
	}
	return CallFailed("%v", err)
}
