// Package tools exposes the weather assistant's callable tools and the
// provider-agnostic function-calling types used to describe them to a
// reasoning backend. The same definitions are translated into the OpenAI and
// Gemini wire formats by the llm package.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Names of the three weather tools, as seen by the backend.
const (
	NameCurrentWeather = "get_weather_for_location"
	NameHourlyForecast = "get_hourly_forecast"
	NameDailyForecast  = "get_daily_forecast"
)

// Tool is the schema sent *to* the model to make it aware of a tool.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	Name string `json:"name"`
	// Description is what the model reads when deciding whether to call the tool,
	// so it carries the routing rules for the tool as well.
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema needed for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ToolCall is a request *from* the model to execute a tool.
type ToolCall struct {
	// ID matches the tool's result back to the request in the next round.
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and JSON-encoded arguments of a call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Result is the outcome of executing a tool. Content is what goes back to
// the model; Failed marks an {"error": ...} payload.
type Result struct {
	Content  string `json:"content"`
	Failed   bool   `json:"failed"`
	Location string `json:"location"`
}

// NewFunctionTool builds a Tool of type "function".
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// LocationArgs is the argument shape shared by all weather tools.
type LocationArgs struct {
	Location string `json:"location"`
}

// ParseLocationArgs decodes the arguments of a weather tool call.
func ParseLocationArgs(arguments string) (string, error) {
	var args LocationArgs
	if strings.TrimSpace(arguments) == "" {
		return "", fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	args.Location = strings.TrimSpace(args.Location)
	if args.Location == "" {
		return "", fmt.Errorf("location cannot be empty")
	}
	return args.Location, nil
}

// EncodeLocationArgs is the inverse of ParseLocationArgs.
func EncodeLocationArgs(location string) string {
	b, _ := json.Marshal(LocationArgs{Location: location})
	return string(b)
}

// KindOf maps a tool name to the data kind it fetches.
func KindOf(name string) (string, bool) {
	switch name {
	case NameCurrentWeather:
		return weather.KindCurrent, true
	case NameHourlyForecast:
		return weather.KindHourly, true
	case NameDailyForecast:
		return weather.KindDaily, true
	}
	return "", false
}

func locationSchema(what string) JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"location": {
				Type:        "string",
				Description: fmt.Sprintf("The name of the location to get %s for (e.g., 'New York', 'London')", what),
			},
		},
		Required: []string{"location"},
	}
}

func errorResult(location, msg string) *Result {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return &Result{Content: string(b), Failed: true, Location: location}
}

func jsonResult(location string, v any) (*Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Result{Content: string(b), Location: location}, nil
}
