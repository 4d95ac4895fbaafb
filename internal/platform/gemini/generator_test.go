package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/madlib-comics/internal/config"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const validStoryJSON = `{
  "fullScript": "Capybarini the hero sneezed pizza onto the moon.",
  "panels": [
    {"title": "One", "visualDescription": "A capybara on the moon", "caption": "Ciao!"},
    {"title": "Two", "visualDescription": "Pizza in orbit", "caption": "Mamma mia!"}
  ]
}`

// fakeModels records calls and replays queued responses.
type fakeModels struct {
	mu        sync.Mutex
	calls     []fakeCall
	responses []fakeResponse
}

type fakeCall struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, fakeCall{model: model, prompt: prompt, config: cfg})

	if len(f.responses) == 0 {
		return nil, errors.New("fake: no response queued")
	}
	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next.resp, next.err
}

func (f *fakeModels) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(mime string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your panel"},
				{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			}},
		}},
	}
}

func rateLimitErr() error {
	return genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		APIKey:      "AIzaSyTestKeyThatIsLongEnough123",
		TextModel:   "text-model",
		ImageModel:  "image-model",
		Temperature: 0.9,
		Reader:      "Walter",
	}
}

func testGenConfig() config.GenerationConfig {
	return config.GenerationConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		ImageInterval: 0,
	}
}

func newTestGenerator(t *testing.T, fake *fakeModels) (*GeminiGenerator, *logger.LogBuffer) {
	t.Helper()
	log, buf := logger.NewTestLogger()
	return newGenerator(log, testLLMConfig(), testGenConfig(), fake), buf
}

func testFields() domain.FieldMap {
	return domain.NewFieldMap("Animal", "Capybara", "Food", "Pizza")
}

func TestGenerateStory_Success(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{{resp: textResponse(validStoryJSON)}}}
	g, _ := newTestGenerator(t, fake)

	story, err := g.GenerateStory(context.Background(), testFields())
	require.NoError(t, err)
	require.Len(t, story.Panels, 2)
	assert.Equal(t, "Ciao!", story.Panels[0].Caption)
	assert.Empty(t, story.Panels[0].ImageURL)

	require.Equal(t, 1, fake.callCount())
	call := fake.calls[0]
	assert.Equal(t, "text-model", call.model)
	assert.Equal(t, "application/json", call.config.ResponseMIMEType)
	require.NotNil(t, call.config.ResponseSchema)
	require.NotNil(t, call.config.Temperature)
	assert.InDelta(t, 0.9, *call.config.Temperature, 0.0001)
	assert.Contains(t, call.prompt, "Animal: Capybara")
	assert.Contains(t, call.prompt, "Walter")
}

func TestGenerateStory_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{
		{err: rateLimitErr()},
		{err: rateLimitErr()},
		{resp: textResponse(validStoryJSON)},
	}}
	g, buf := newTestGenerator(t, fake)

	story, err := g.GenerateStory(context.Background(), testFields())
	require.NoError(t, err)
	assert.Len(t, story.Panels, 2)
	assert.Equal(t, 3, fake.callCount())
	assert.Contains(t, buf.Messages(), "rate limited, retrying after delay")
}

func TestGenerateStory_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{{err: rateLimitErr()}}}
	g, _ := newTestGenerator(t, fake)

	_, err := g.GenerateStory(context.Background(), testFields())
	require.Error(t, err)

	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 4, fake.callCount())
}

func TestGenerateStory_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	permanent := genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad request"}
	fake := &fakeModels{responses: []fakeResponse{{err: permanent}}}
	g, _ := newTestGenerator(t, fake)

	_, err := g.GenerateStory(context.Background(), testFields())
	require.Error(t, err)
	assert.Equal(t, 1, fake.callCount())
}

func TestGenerateStory_ResponseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		wantErr error
	}{
		{
			name:    "No candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrEmptyScript,
		},
		{
			name:    "Blank text",
			resp:    textResponse("   "),
			wantErr: generation.ErrEmptyScript,
		},
		{
			name:    "Not JSON",
			resp:    textResponse("once upon a time"),
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "Safety block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: generation.ErrContentBlocked,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeModels{responses: []fakeResponse{{resp: tc.resp}}}
			g, _ := newTestGenerator(t, fake)

			_, err := g.GenerateStory(context.Background(), testFields())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 1, fake.callCount())
		})
	}
}

func TestGenerateImage_Success(t *testing.T) {
	t.Parallel()

	data := []byte{0x89, 'P', 'N', 'G'}
	fake := &fakeModels{responses: []fakeResponse{{resp: imageResponse("image/jpeg", data)}}}
	g, _ := newTestGenerator(t, fake)

	uri, err := g.GenerateImage(context.Background(), "A capybara on the moon")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(data), uri)

	require.Equal(t, 1, fake.callCount())
	call := fake.calls[0]
	assert.Equal(t, "image-model", call.model)
	require.NotNil(t, call.config.ImageConfig)
	assert.Equal(t, "1:1", call.config.ImageConfig.AspectRatio)
	assert.Contains(t, call.prompt, "Subject: A capybara on the moon")
}

func TestGenerateImage_NoInlineData(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{{resp: textResponse("I cannot draw that")}}}
	g, _ := newTestGenerator(t, fake)

	_, err := g.GenerateImage(context.Background(), "anything")
	assert.ErrorIs(t, err, generation.ErrImageGenerationFailed)
}

func TestGenerateImage_WaitsIntervalFirst(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{{resp: imageResponse("image/png", []byte{1})}}}
	log, _ := logger.NewTestLogger()
	gen := testGenConfig()
	gen.ImageInterval = 1500 * time.Millisecond
	g := newGenerator(log, testLLMConfig(), gen, fake)

	var waited []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		assert.Equal(t, 0, fake.callCount(), "interval must elapse before the call")
		waited = append(waited, d)
		return nil
	}

	_, err := g.GenerateImage(context.Background(), "scene")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, waited)
}

func TestGenerateImage_CancelledDuringInterval(t *testing.T) {
	t.Parallel()

	fake := &fakeModels{responses: []fakeResponse{{resp: imageResponse("image/png", []byte{1})}}}
	log, _ := logger.NewTestLogger()
	gen := testGenConfig()
	gen.ImageInterval = time.Hour
	g := newGenerator(log, testLLMConfig(), gen, fake)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := g.GenerateImage(ctx, "scene")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fake.callCount())
}

func TestNewGeminiGenerator_InvalidKeyFailsCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{"Missing", ""},
		{"Placeholder", generation.PlaceholderAPIKey},
		{"Truncated", "AIzaShort"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			log, _ := logger.NewTestLogger()
			llm := testLLMConfig()
			llm.APIKey = tc.key

			g, err := NewGeminiGenerator(context.Background(), log, llm, testGenConfig())
			require.NoError(t, err)
			assert.Nil(t, g.models)

			_, err = g.GenerateStory(context.Background(), testFields())
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)

			_, err = g.GenerateImage(context.Background(), "scene")
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestNewGeminiGenerator_NilLogger(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiGenerator(context.Background(), nil, testLLMConfig(), testGenConfig())
	assert.Error(t, err)
}
