// Package api holds the request and response bodies of the dashboard HTTP API
// and the token usage accounting shared with the llm package.
package api

import "github.com/dileep-u-k/weather-companion/internal/weather"

// Usage tracks token consumption for one backend call or a whole turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// SearchRequest starts (or resets) a dashboard session for a location.
type SearchRequest struct {
	Location  string `json:"location" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// SearchResponse is returned after a successful location search.
type SearchResponse struct {
	SessionID    string             `json:"session_id"`
	Dashboard    *weather.Dashboard `json:"dashboard"`
	QuickActions []string           `json:"quick_actions"`
}

// MessageRequest carries one user utterance.
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ToolInvocation describes a tool call made (or served from context) during a turn.
type ToolInvocation struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	// Status is one of "executed", "failed", "pinned", "cached" or "blocked".
	Status string `json:"status"`
}

// MessageResponse is the assistant's reply to one user turn.
type MessageResponse struct {
	Reply                string           `json:"reply"`
	ToolCalls            []ToolInvocation `json:"tool_calls"`
	Refused              bool             `json:"refused"`
	AwaitingConfirmation bool             `json:"awaiting_confirmation"`
	Usage                Usage            `json:"usage"`
}

// Message is one entry of the visible conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse lists the user and assistant messages of a session.
type HistoryResponse struct {
	SessionID      string    `json:"session_id"`
	PinnedLocation string    `json:"pinned_location"`
	Messages       []Message `json:"messages"`
}

// QuickActionsResponse lists the fixed prompts for the pinned location.
type QuickActionsResponse struct {
	Location     string   `json:"location"`
	QuickActions []string `json:"quick_actions"`
}
