package generation

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/phrazzld/madlib-comics/internal/domain"
)

// PanelCount is the number of panels the script prompt asks for. The model
// may return a different number; the pipeline accepts whatever comes back.
const PanelCount = 6

// ImageAspectRatio is the aspect ratio requested for every panel image.
const ImageAspectRatio = "1:1"

// ImageStylePrefix is prepended to every panel description.
const ImageStylePrefix = "Hyperrealism masterpiece, cinematic 8k photography, ultra-detailed photographic textures, " +
	"realistic materials, Italian Brainrot aesthetic, hybrid animal-object creatures, vibrant colors, " +
	"square aspect ratio, no text."

const storyPromptText = `You are a Master of "Italian Brainrot" Hyperrealism. Create a {{.PanelCount}}-panel sequential comic book script for a child named {{.Reader}}.

STRICT RULES:
1. LANGUAGE: Use ENGLISH for everything.
2. NAMES: Italianize names of people/creatures by adding suffixes like -ini, -ello, -ona, or -etto.
3. HYBRIDS: Every creature must be a hybrid of an animal and an object (e.g., a "Shark-Toaster" or "Pigeon-Pizza"). Feature one hybrid creature per panel.
4. STORYTELLING: Create a coherent sequential story with a beginning, middle, and end across exactly {{.PanelCount}} panels.
5. VISUAL STYLE: All panels will be SQUARE (1:1 aspect ratio). The art style must be "Hyperrealism" - incredibly detailed, photographic textures, cinematic lighting, 8k resolution, realistic materials.
6. SAFETY: PG ONLY. No weapons, no violence, no gore.

USER INPUTS: {{.Inputs}}.`

var storyPromptTemplate = template.Must(template.New("story").Parse(storyPromptText))

// DefaultReader is the child the story is written for when none is configured.
const DefaultReader = "Walter"

type storyPromptData struct {
	PanelCount int
	Reader     string
	Inputs     string
}

// BuildStoryPrompt renders the script prompt for the given answers. Answers
// are embedded as "key: value" pairs in entry order.
func BuildStoryPrompt(fields domain.FieldMap, reader string) (string, error) {
	if reader == "" {
		reader = DefaultReader
	}

	data := storyPromptData{
		PanelCount: PanelCount,
		Reader:     reader,
		Inputs:     fields.String(),
	}

	var buf bytes.Buffer
	if err := storyPromptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute story prompt template: %w", err)
	}
	return buf.String(), nil
}

// BuildImagePrompt prefixes a panel description with the fixed image style.
func BuildImagePrompt(description string) string {
	return ImageStylePrefix + " Subject: " + description
}
