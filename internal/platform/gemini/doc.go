// Package gemini implements generation.Generator on top of Google's Gemini
// API (google.golang.org/genai).
//
// It is an infrastructure adapter: it translates the provider-neutral
// requests of the generation package into GenerateContent calls and maps the
// responses back into domain types.
//
// Every remote call is wrapped in retry.Do, so a rate-limited call is retried
// with exponential backoff while any other failure is returned at once. The
// credential is validated before any request is built, and a fixed pause is
// taken before every image call to stay under the provider's request-rate
// ceiling.
package gemini
