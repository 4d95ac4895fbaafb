package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/madlib-comics/internal/config"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/retry"
	"google.golang.org/genai"
)

// contentGenerator is the subset of the genai client used by the generator.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements generation.Generator on top of the Gemini API.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// llm holds model names, temperature and the reader's name
	llm config.LLMConfig

	// policy is the retry policy applied to every remote call
	policy retry.Policy

	// imageInterval is waited before every image call
	imageInterval time.Duration

	// models performs the remote calls; nil when keyErr is set
	models contentGenerator

	// keyErr is the credential validation failure, if any. When set, every
	// call fails with it and no request is made.
	keyErr error

	// sleep waits for d or until ctx is done
	sleep func(ctx context.Context, d time.Duration) error
}

// Compile-time check that GeminiGenerator implements generation.Generator.
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator for the given configuration.
//
// An unusable credential does not fail construction. The problem is reported
// by each generation call instead, wrapped in generation.ErrInvalidConfig,
// so that the server can start and explain the failure per request.
//
// Parameters:
//   - ctx: Context used while creating the underlying client
//   - logger: A structured logger for operation logging
//   - llm: Model names, credential and prompt settings
//   - gen: Retry and pacing policy
//
// Returns:
//   - An initialized GeminiGenerator, or an error if the client could not be created
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	llm config.LLMConfig,
	gen config.GenerationConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	g := newGenerator(logger, llm, gen, nil)

	key := generation.CleanAPIKey(llm.APIKey)
	if err := generation.ValidateAPIKey(key); err != nil {
		logger.Warn("gemini credential is not usable, generation calls will fail",
			"error", err)
		g.keyErr = err
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}
	g.models = client.Models

	return g, nil
}

func newGenerator(
	logger *slog.Logger,
	llm config.LLMConfig,
	gen config.GenerationConfig,
	models contentGenerator,
) *GeminiGenerator {
	return &GeminiGenerator{
		logger: logger.With("component", "gemini_generator"),
		llm:    llm,
		policy: retry.Policy{
			MaxRetries:   gen.MaxRetries,
			InitialDelay: gen.InitialDelay,
		},
		imageInterval: gen.ImageInterval,
		models:        models,
		sleep:         sleepContext,
	}
}

// GenerateStory asks the text model for a comic script built from fields and
// parses the structured response.
//
// Returns:
//   - The script and its panels in reading order, with no images set
//   - generation.ErrInvalidConfig if the credential is unusable
//   - generation.ErrEmptyScript if the model returned no text
//   - generation.ErrInvalidResponse if the text does not match the story schema
//   - The final remote error if rate limiting outlasted the retry policy
func (g *GeminiGenerator) GenerateStory(ctx context.Context, fields domain.FieldMap) (*domain.StoryResult, error) {
	if g.keyErr != nil {
		return nil, g.keyErr
	}

	prompt, err := generation.BuildStoryPrompt(fields, g.llm.Reader)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.llm.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   storySchema(),
	}

	g.logger.DebugContext(ctx, "requesting story script",
		"model", g.llm.TextModel,
		"field_count", len(fields),
		"prompt_length", len(prompt))

	resp, err := g.call(ctx, "story", g.llm.TextModel, prompt, cfg)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return nil, generation.ErrEmptyScript
	}

	story, err := generation.ParseStory(text)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to parse story response",
			"error", err,
			"response_length", len(text))
		return nil, err
	}

	g.logger.InfoContext(ctx, "story script generated",
		"panel_count", len(story.Panels))
	return story, nil
}

// GenerateImage waits the configured image interval, then asks the image
// model for a square picture of description.
//
// Returns:
//   - A data URI of the first inline image in the response
//   - generation.ErrImageGenerationFailed if the response carried no image
//   - ctx.Err() if ctx is cancelled during the wait
func (g *GeminiGenerator) GenerateImage(ctx context.Context, description string) (string, error) {
	if g.keyErr != nil {
		return "", g.keyErr
	}

	if err := g.sleep(ctx, g.imageInterval); err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: generation.ImageAspectRatio,
		},
	}

	resp, err := g.call(ctx, "image", g.llm.ImageModel, generation.BuildImagePrompt(description), cfg)
	if err != nil {
		return "", err
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return "", fmt.Errorf("%w: response contained no inline image data", generation.ErrImageGenerationFailed)
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	g.logger.DebugContext(ctx, "panel image generated",
		"mime_type", mimeType,
		"bytes", len(blob.Data))

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(blob.Data), nil
}

// call performs one GenerateContent request under the retry policy and
// converts safety blocks to generation.ErrContentBlocked.
func (g *GeminiGenerator) call(
	ctx context.Context,
	operation, model, prompt string,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	contents := genai.Text(prompt)

	resp, err := retry.Do(ctx, g.policy,
		func(ctx context.Context) (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, model, contents, cfg)
		},
		retry.WithLogger(g.logger, operation))
	if err != nil {
		g.logger.ErrorContext(ctx, "gemini request failed",
			"operation", operation,
			"model", model,
			"error", err)
		return nil, err
	}

	if reason := blockReason(resp); reason != "" {
		g.logger.WarnContext(ctx, "gemini blocked the request",
			"operation", operation,
			"reason", reason)
		return nil, fmt.Errorf("%w: %s", generation.ErrContentBlocked, reason)
	}
	return resp, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// firstInlineData returns the first inline blob in any candidate.
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

// blockReason returns a non-empty reason when the prompt or the first
// candidate was stopped by safety filters.
func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" &&
		fb.BlockReason != genai.BlockedReasonUnspecified {
		return string(fb.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
			return string(resp.Candidates[0].FinishReason)
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
