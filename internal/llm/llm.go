// Package llm abstracts the text-generation backend. Two implementations
// exist: OpenAI chat completions and Gemini. Both support a strict mode
// where the backend itself is asked to emit a single JSON object; callers
// fall back to a plain request when strict mode fails.
package llm

import "context"

// Request is one generation call: a system instruction and a user
// instruction, already rendered.
type Request struct {
	System string
	User   string
}

// Generator issues one request and returns the raw response text.
type Generator interface {
	// Generate returns the backend's response. When strict is true the
	// backend's native JSON response mode is enabled if it has one.
	Generate(ctx context.Context, req Request, strict bool) (string, error)
	Close()
}
