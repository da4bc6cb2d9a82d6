package llm

import "time"

// Shared by the backend clients.
const (
	defaultTimeout    = 60 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second

	defaultMaxTokens = 1024

	// Groq serves an OpenAI-compatible chat completions endpoint.
	GroqBaseURL   = "https://api.groq.com/openai/v1/chat/completions"
	OpenAIBaseURL = "https://api.openai.com/v1/chat/completions"

	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-1.5-flash"
)
