// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// The model credential is resolved here, once, at startup. Components receive
// it through LLMConfig and never read the environment themselves.
package config
