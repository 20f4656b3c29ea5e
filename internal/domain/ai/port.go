package ai

import "context"

// Client is the external model-call collaborator. Both calls must honor the
// deadline carried by ctx.
type Client interface {
	// CompleteStructured asks for schema-constrained output.
	CompleteStructured(ctx context.Context, messages []Message) (Response, error)
	// CompleteText asks for a plain free-text completion.
	CompleteText(ctx context.Context, messages []Message) (Response, error)
}
