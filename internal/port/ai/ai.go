package ai

import "context"

// Chunk is one piece of a streamed completion. Err is set on the final
// chunk when the stream failed; Done marks the end either way.
type Chunk struct {
	Content string
	Done    bool
	Err     error
}

// Generator abstracts the external text-generation service. The prompt
// lifecycle never calls this — only the AI service does.
type Generator interface {
	// Complete returns the full response for a system+user instruction pair.
	Complete(ctx context.Context, system, user string) (string, error)
	// Stream returns a channel of chunks; the channel is closed after the
	// Done chunk. Cancelling ctx abandons the stream.
	Stream(ctx context.Context, system, user string) (<-chan Chunk, error)
}
