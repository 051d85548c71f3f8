package diagnostic

import "context"

// Provider generates the "life diagnostic" text for a prompt. A provider
// makes exactly one request per call; pacing and failure surfacing belong
// to the callers.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt, userID string) (*Result, error)
}

type Result struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
