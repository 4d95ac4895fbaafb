// Package service contains the application-specific use cases and business
// logic. It orchestrates the moderator, the name transformer and the remote
// generator to turn a Field Map into an illustrated comic.
//
// The service layer depends on domain entities and on the generation
// interfaces, but never on a specific model provider, so the pipeline can be
// exercised end to end against in-memory fakes.
//
// Key components:
//
// 1. StoryService:
//   - Moderates answers before any remote call is made
//   - Italianizes names, requests the script, then renders each panel in order
//   - Reports progress after every step through a caller-supplied callback
//
// 2. Error Handling:
//   - Wraps failures with the pipeline stage while keeping the original error
//     visible to errors.Is and errors.As
//   - ClassifyError maps any pipeline error to a job error kind
package service
