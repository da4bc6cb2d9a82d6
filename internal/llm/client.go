package llm

import (
	"context"

	"github.com/dileep-u-k/weather-companion/internal/api"
	"github.com/dileep-u-k/weather-companion/internal/tools"
)

// Role is the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry of the conversation sent to the backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the tool name on RoleTool messages. Gemini needs it to build a
	// function response; OpenAI-compatible backends ignore it.
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls one backend call.
type GenerationConfig struct {
	Model string `yaml:"model"`
	// Pointer so that 0.0 can be told apart from unset.
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	TopP        *float32 `yaml:"top_p"`
}

// GenerationResult is the complete output of one backend call.
type GenerationResult struct {
	Content string
	// ToolCalls may hold several calls; they are executed in order.
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
}

// LLMClient is the calling contract every reasoning backend implements.
type LLMClient interface {
	// Generate sends the full conversation and returns either a final reply or
	// the tool calls the backend wants executed next.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
