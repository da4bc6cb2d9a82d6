package tools

import "context"

// ToolExecutor is implemented by every tool the agent can call.
//
// Definition is what the backend sees; Execute receives the JSON arguments
// the backend generated. Failures the user should hear about (unknown
// location, unavailable data) come back as a Failed Result, not as an error.
// An error is reserved for calls that could not be interpreted at all.
type ToolExecutor interface {
	Definition() Tool
	Execute(ctx context.Context, arguments string) (*Result, error)
}
