package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-companion/internal/api"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/tools"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// Invocation statuses reported to callers.
const (
	StatusExecuted = "executed"
	StatusFailed   = "failed"
	StatusPinned   = "pinned"
	StatusCached   = "cached"
	StatusBlocked  = "blocked"
)

// turn is the working memory of one user turn. Nothing in it reaches the
// store until commit.
type turn struct {
	st        *conversation.State
	number    int
	utterance string

	// working holds the assistant tool-call and tool-result messages of this turn.
	working     []llm.Message
	keepWorking bool

	invocations   []api.ToolInvocation
	failedKeys    map[string]bool
	toolsWithheld bool

	failures, successes, served int
	failedLocation              string
}

func newTurn(st *conversation.State, utterance string) *turn {
	return &turn{
		st:          st,
		number:      st.Turns + 1,
		utterance:   utterance,
		keepWorking: true,
		failedKeys:  make(map[string]bool),
	}
}

func (t *turn) first() bool {
	return t.number == 1
}

// messages is the full conversation sent to the backend for the next round.
func (t *turn) messages(system string) []llm.Message {
	msgs := make([]llm.Message, 0, len(t.st.Messages)+len(t.working)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	msgs = append(msgs, t.st.Messages...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.utterance})
	return append(msgs, t.working...)
}

// commit appends the turn to the session history.
func (t *turn) commit(reply string) {
	t.st.Messages = append(t.st.Messages, llm.Message{Role: llm.RoleUser, Content: t.utterance})
	if t.keepWorking {
		t.st.Messages = append(t.st.Messages, t.working...)
	}
	t.st.Messages = append(t.st.Messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
	t.st.Turns++
}

func (t *turn) askConfirmation(location, kind string) *TurnResult {
	log.Printf("❓ Asking to confirm switch from %s to %s", t.st.PinnedLocation, location)
	t.st.PendingConfirmation = location
	t.st.PendingKind = kind
	t.keepWorking = false
	return &TurnResult{
		Reply:                ConfirmationReply(location, t.st.PinnedLocation),
		AwaitingConfirmation: true,
	}
}

// allHaveData reports whether every location already has data in the session.
func (t *turn) allHaveData(locations []string) bool {
	if len(locations) < 2 {
		return false
	}
	for _, loc := range locations {
		if t.st.IsPinned(loc) && t.st.PinnedSnapshot != nil {
			continue
		}
		if len(t.st.LedgerFor(loc)) == 0 {
			return false
		}
	}
	return true
}

// finish applies the reply post-filter.
func (t *turn) finish(content string) *TurnResult {
	if t.failures > 0 && t.successes == 0 && t.served == 0 {
		log.Printf("⚠️ Every fetch failed this turn; replying with apology for %s", t.failedLocation)
		return &TurnResult{Reply: ToolFailureReply(t.failedLocation)}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return &TurnResult{Reply: EmptyReply}
	}
	if isRefusal(content) {
		return &TurnResult{Reply: RefusalReply, Refused: true}
	}
	return &TurnResult{Reply: content}
}

func (t *turn) record(name, location, status string) {
	t.invocations = append(t.invocations, api.ToolInvocation{Name: name, Location: location, Status: status})
}

// guard decides how a backend tool call is served. It returns the tool
// message for the backend, or a non-nil result when the turn must end with a
// confirmation question instead.
func (a *Agent) guard(ctx context.Context, t *turn, call *tools.ToolCall) (llm.Message, *TurnResult) {
	st := t.st
	name := call.Function.Name
	reply := func(content string) llm.Message {
		return llm.Message{Role: llm.RoleTool, Name: name, ToolCallID: call.ID, Content: content}
	}

	kind, ok := tools.KindOf(name)
	if !ok {
		t.record(name, "", StatusBlocked)
		return reply(errorJSON(fmt.Sprintf("unknown tool %s", name))), nil
	}
	location, err := tools.ParseLocationArgs(call.Function.Arguments)
	if err != nil {
		t.record(name, "", StatusBlocked)
		return reply(errorJSON(err.Error())), nil
	}
	location = llm.CorrectLocation(location, st.KnownLocations())

	if t.first() && !st.IsKnown(location) {
		return llm.Message{}, t.askConfirmation(location, kind)
	}

	if kind == weather.KindCurrent && st.IsPinned(location) {
		log.Printf("📌 Serving pinned snapshot for %s", location)
		t.served++
		t.record(name, st.PinnedLocation, StatusPinned)
		return reply(mustJSON(st.PinnedSnapshot)), nil
	}

	if content, ok := st.Lookup(kind, location); ok {
		log.Printf("✅ Ledger HIT for %s %s", kind, location)
		t.served++
		t.record(name, location, StatusCached)
		return reply(content), nil
	}

	key := conversation.FetchKey(kind, location)
	if t.failedKeys[key] {
		t.record(name, location, StatusBlocked)
		return reply(errorJSON(fmt.Sprintf("%s data for %s already failed this turn; do not retry", kind, location))), nil
	}
	if t.toolsWithheld {
		t.record(name, location, StatusBlocked)
		return reply(errorJSON("tools are unavailable this turn; answer from the data already provided")), nil
	}

	log.Printf("🛠️ Executing tool: %s (ID: %s) for %s", name, call.ID, location)
	result, err := a.tools.Execute(ctx, name, tools.EncodeLocationArgs(location))
	if err != nil {
		result = &tools.Result{Content: errorJSON(err.Error()), Failed: true, Location: location}
	}

	st.ToolLog = append(st.ToolLog, conversation.ToolLogEntry{
		Turn: t.number, Tool: name, Kind: kind, Location: location, Failed: result.Failed, At: time.Now(),
	})
	if result.Failed {
		log.Printf("WARNING: tool %s failed for %s: %s", name, location, result.Content)
		t.failedKeys[key] = true
		t.failures++
		t.failedLocation = location
		t.record(name, location, StatusFailed)
		return reply(result.Content), nil
	}

	st.Record(kind, location, result.Content)
	t.successes++
	t.record(name, location, StatusExecuted)
	return reply(result.Content), nil
}

func toolForKind(kind string) string {
	switch kind {
	case weather.KindHourly:
		return tools.NameHourlyForecast
	case weather.KindDaily:
		return tools.NameDailyForecast
	}
	return tools.NameCurrentWeather
}

func errorJSON(msg string) string {
	return mustJSON(map[string]string{"error": msg})
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errorJSON("could not encode data")
	}
	return string(b)
}
