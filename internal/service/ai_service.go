package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	cfg "github.com/contentflow/contentflow-api/configs"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, prompt string) (string, error)
}

const (
	defaultOpenAITextModel    = "gpt-4o-mini"
	defaultAnthropicTextModel = "claude-haiku-4-5-20251001"
	maxIdeaOutputTokens       = 1024
)

type openAIImageGenerator struct {
	client openaiclient.Client
	model  string
}

func NewImageGenerator(c cfg.Config) ImageGenerator {
	client := openaiclient.NewClient(
		openaioption.WithAPIKey(c.AI.OpenAIKey),
		openaioption.WithMaxRetries(1),
	)
	return &openAIImageGenerator{client: client, model: c.AI.ImageModel}
}

func (g *openAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Images.Generate(ctx, openaiclient.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openaiclient.ImageModel(g.model),
		N:              openaiclient.Int(1),
		Size:           openaiclient.ImageGenerateParamsSize1024x1024,
		Quality:        openaiclient.ImageGenerateParamsQualityStandard,
		ResponseFormat: openaiclient.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		slog.Error("image generation failed", "model", g.model, "error", err)
		return nil, classifyGenerationError(err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, newError(ErrGeneration, "image generator returned no image data", nil)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		slog.Error("image payload could not be decoded", "error", err)
		return nil, newError(ErrGeneration, "image generator returned invalid image data", err)
	}

	return data, nil
}

type languageModelTextGenerator struct {
	model jetapi.LanguageModel
}

// NewTextGenerator picks the provider from TEXT_PROVIDER. Both are driven
// through the same language model abstraction.
func NewTextGenerator(c cfg.Config) (TextGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(c.AI.TextProvider))
	modelID := strings.TrimSpace(c.AI.TextModel)

	if provider == "anthropic" {
		if c.AI.AnthropicKey == "" {
			return nil, errors.New("anthropic api key is empty")
		}
		if modelID == "" {
			modelID = defaultAnthropicTextModel
		}
		client := anthropicclient.NewClient(
			anthropicoption.WithAPIKey(c.AI.AnthropicKey),
			anthropicoption.WithMaxRetries(1),
		)
		return &languageModelTextGenerator{model: jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client))}, nil
	}

	if c.AI.OpenAIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if modelID == "" {
		modelID = defaultOpenAITextModel
	}
	client := openaiclient.NewClient(
		openaioption.WithAPIKey(c.AI.OpenAIKey),
		openaioption.WithMaxRetries(1),
	)
	return &languageModelTextGenerator{model: jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client))}, nil
}

func (g *languageModelTextGenerator) GenerateText(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})

	resp, err := jetai.GenerateText(ctx, messages,
		jetai.WithModel(g.model),
		jetai.WithMaxOutputTokens(maxIdeaOutputTokens),
	)
	if err != nil {
		slog.Error("text generation failed", "error", err)
		return "", classifyGenerationError(err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.(*jetapi.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", newError(ErrGenUnavailable, "text generator returned an empty response", nil)
	}
	return out.String(), nil
}

// classifyGenerationError maps provider failures onto the generation error
// kinds. Content policy blocks become client errors.
func classifyGenerationError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrGenUnavailable, "generation service timed out", err)
	}

	status, code, message := 0, "", ""
	var openaiErr *openaiclient.Error
	var anthropicErr *anthropicclient.Error
	switch {
	case errors.As(err, &openaiErr):
		status, code, message = openaiErr.StatusCode, openaiErr.Code, openaiErr.Message
	case errors.As(err, &anthropicErr):
		status = anthropicErr.StatusCode
		var body anthropicclient.ErrorResponse
		if jsonErr := json.Unmarshal([]byte(anthropicErr.RawJSON()), &body); jsonErr == nil {
			code, message = body.Error.Type, body.Error.Message
		}
	default:
		return newError(ErrGenUnavailable, "could not reach the generation service", err)
	}

	switch {
	case status == http.StatusBadRequest && isContentPolicyBlock(code, message):
		return newError(ErrContentPolicy, "the prompt was rejected by the provider's content policy", err)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return newError(ErrGenUnavailable, "generation service is busy, try again later", err)
	default:
		return newError(ErrGeneration, fmt.Sprintf("generation service returned status %d", status), err)
	}
}

func isContentPolicyBlock(code, message string) bool {
	if code == "content_policy_violation" {
		return true
	}
	m := strings.ToLower(message)
	return strings.Contains(m, "safety system") ||
		strings.Contains(m, "content policy") ||
		strings.Contains(m, "content filtering")
}
