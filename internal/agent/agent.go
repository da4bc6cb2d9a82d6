// Package agent is the weather assistant's orchestrator. For each user turn it
// applies the conversation policy (domain gate, location confirmation,
// redundancy and comparison rules), drives a bounded tool loop against the
// reasoning backend, and commits exactly one reply to the session.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/dileep-u-k/weather-companion/internal/api"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/tools"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// ErrEmptyUtterance is returned for blank user messages.
var ErrEmptyUtterance = errors.New("message cannot be empty")

// DefaultMaxToolRounds bounds the backend calls of a single turn.
const DefaultMaxToolRounds = 5

// Config tunes the agent.
type Config struct {
	MaxToolRounds int                  `yaml:"max_tool_rounds"`
	Generation    llm.GenerationConfig `yaml:"generation"`
}

// TurnResult is what a caller gets back for one user utterance.
type TurnResult struct {
	Reply                string
	ToolCalls            []api.ToolInvocation
	Refused              bool
	AwaitingConfirmation bool
	Usage                api.Usage
}

// Agent serves every session; turns of the same session are serialized.
type Agent struct {
	backend  llm.LLMClient
	store    conversation.Store
	tools    *tools.ToolManager
	intents  *llm.IntentAnalyzer
	geocoder weather.Geocoder
	gateway  weather.Gateway
	cfg      Config

	locks sync.Map // session id -> *sync.Mutex
}

// New wires an agent. The weather tools are built over geocoder and gateway.
func New(backend llm.LLMClient, store conversation.Store, geocoder weather.Geocoder, gateway weather.Gateway, cfg Config) *Agent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Agent{
		backend:  backend,
		store:    store,
		tools:    tools.NewWeatherToolManager(tools.NewService(geocoder, gateway)),
		intents:  llm.NewIntentAnalyzer(),
		geocoder: geocoder,
		gateway:  gateway,
		cfg:      cfg,
	}
}

// Tools exposes the registry, mainly for hosts that invoke tools directly.
func (a *Agent) Tools() *tools.ToolManager {
	return a.tools
}

func (a *Agent) lock(sessionID string) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Start handles a location search. It fetches the dashboard bundle, pins the
// current snapshot and starts a fresh conversation. Passing the id of an
// existing session resets it; an empty id creates a new one.
func (a *Agent) Start(ctx context.Context, location, sessionID string) (*conversation.State, *weather.Dashboard, error) {
	name := weather.DisplayName(location)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: empty location name", weather.ErrLocationNotFound)
	}

	dash, err := weather.FetchDashboard(ctx, a.geocoder, a.gateway, name)
	if err != nil {
		return nil, nil, err
	}

	st := conversation.New(name, dash.Current)
	if dash.Hourly != nil {
		st.Record(weather.KindHourly, name, mustJSON(dash.Hourly))
	}
	if dash.Daily != nil {
		st.Record(weather.KindDaily, name, mustJSON(dash.Daily))
	}

	if sessionID == "" {
		err = a.store.Create(ctx, st)
	} else {
		mu := a.lock(sessionID)
		mu.Lock()
		defer mu.Unlock()
		st.ID = sessionID
		err = a.store.Save(ctx, st)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("📌 Session %s pinned to %s", st.ID, name)
	return st, dash, nil
}

// History returns the session state for display.
func (a *Agent) History(ctx context.Context, sessionID string) (*conversation.State, error) {
	return a.store.Get(ctx, sessionID)
}

// Respond runs one user turn. Policy and backend failures become replies;
// only an unknown session or a store failure is returned as an error.
func (a *Agent) Respond(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}

	// Unknown ids are rejected before a lock is allocated for them.
	if _, err := a.store.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	mu := a.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	st, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log.Printf("--- Turn %d (Session: %s, Utterance: '%.40s') ---", st.Turns+1, sessionID, utterance)
	t := newTurn(st, utterance)
	result := a.run(ctx, t)
	t.commit(result.Reply)

	if err := a.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	result.ToolCalls = t.invocations
	return result, nil
}

func (a *Agent) run(ctx context.Context, t *turn) *TurnResult {
	st := t.st
	intent := a.intents.Analyze(t.utterance, llm.IntentContext{
		KnownLocations:       st.KnownLocations(),
		HasHistory:           st.Turns > 0,
		AwaitingConfirmation: st.PendingConfirmation != "",
	})

	if !intent.Weather {
		log.Println("🚫 Off-topic utterance refused.")
		st.ClearPending()
		return &TurnResult{Reply: RefusalReply, Refused: true}
	}

	var directives []string
	if pending := st.PendingConfirmation; pending != "" {
		switch {
		case intent.Affirmative:
			kind := st.PendingKind
			st.Confirm()
			log.Printf("✅ User confirmed switch to %s", pending)
			directives = append(directives, confirmedDirective(pending, kind))
		case intent.Negative:
			st.ClearPending()
			return &TurnResult{Reply: DeclinedReply(st.PinnedLocation)}
		default:
			st.ClearPending()
		}
	}

	if t.first() {
		for _, loc := range intent.Locations {
			if !st.IsPinned(loc) && !st.IsConfirmed(loc) {
				return t.askConfirmation(loc, intent.Kind)
			}
		}
	}

	if intent.Comparison && t.allHaveData(intent.Locations) {
		log.Printf("⚖️ Comparison of known locations %v; tools withheld.", intent.Locations)
		t.toolsWithheld = true
		directives = append(directives, comparisonDirective(st, intent.Locations))
	} else if len(directives) == 0 {
		directives = append(directives, kindDirective(intent.Kind))
	}

	return a.toolLoop(ctx, t, systemPrompt(st, directives))
}

// toolLoop alternates backend calls and guarded tool executions until the
// backend answers without tool calls or the round limit is hit.
func (a *Agent) toolLoop(ctx context.Context, t *turn, system string) *TurnResult {
	var usage api.Usage
	var defs []tools.Tool
	if !t.toolsWithheld {
		defs = a.tools.GetDefinitions()
	}

	for round := 0; round < a.cfg.MaxToolRounds; round++ {
		result, err := a.backend.Generate(ctx, t.messages(system), &a.cfg.Generation, defs)
		if err != nil {
			log.Printf("❌ Backend failure: %v", err)
			t.keepWorking = false
			return &TurnResult{Reply: BackendFailureReply, Usage: usage}
		}
		usage.Add(result.Usage)

		if len(result.ToolCalls) == 0 {
			log.Println("Backend provided final answer. Exiting tool loop.")
			res := t.finish(result.Content)
			res.Usage = usage
			return res
		}

		t.working = append(t.working, llm.Message{Role: llm.RoleAssistant, Content: result.Content, ToolCalls: result.ToolCalls})
		for _, call := range result.ToolCalls {
			msg, abort := a.guard(ctx, t, call)
			if abort != nil {
				abort.Usage = usage
				return abort
			}
			t.working = append(t.working, msg)
		}
	}

	log.Printf("❌ Exceeded maximum of %d tool rounds.", a.cfg.MaxToolRounds)
	t.keepWorking = false
	return &TurnResult{Reply: BackendFailureReply, Usage: usage}
}
