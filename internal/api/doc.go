// Package api exposes the comic generator over HTTP. It validates answer
// sets, runs the synchronous moderation check, and lets clients submit,
// poll, list and cancel background story jobs. Handlers translate between
// HTTP and the task runner and never call the model directly.
package api
