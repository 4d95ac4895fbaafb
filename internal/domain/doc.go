// Package domain contains the core entities of the comic generator: the
// user-supplied Field Map, the generated Story Result and its Panels, the
// outcome of input moderation, and the Story Job that tracks one run of the
// generation pipeline. It is independent of any transport, storage, or model
// provider.
package domain
