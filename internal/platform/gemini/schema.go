package gemini

import "google.golang.org/genai"

// storySchema is the structured-output schema of the script call. It must
// stay in step with the payload decoded by generation.ParseStory.
func storySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"fullScript": {
				Type:        genai.TypeString,
				Description: "A 6-8 sentence funny English story",
			},
			"panels": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": {Type: genai.TypeString},
						"visualDescription": {
							Type:        genai.TypeString,
							Description: "Detailed visual description for the panel, focusing on Hyperrealism and realistic textures",
						},
						"caption": {
							Type:        genai.TypeString,
							Description: "Short English quote",
						},
					},
					Required: []string{"title", "visualDescription", "caption"},
				},
			},
		},
		Required: []string{"fullScript", "panels"},
	}
}
