// Package task manages background story job queuing, processing, and lifecycle.
// It runs the generation pipeline asynchronously so HTTP request handling is
// never blocked, keeps at most one pipeline running at a time, and closes out
// jobs orphaned by a previous process when it starts.
package task
