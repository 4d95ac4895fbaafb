// Package generation defines the boundary between the story pipeline and the
// generative model that writes the comic script and paints its panels.
//
// It owns everything about a generation request that does not depend on a
// particular provider:
//
//   - the StoryGenerator and ImageGenerator interfaces implemented by
//     infrastructure adapters (see internal/platform/gemini)
//   - prompt construction for the script and image calls
//   - the response schema of the script call and its validation
//   - credential validation, performed before any network traffic
//   - sentinel errors that callers branch on with errors.Is
package generation
