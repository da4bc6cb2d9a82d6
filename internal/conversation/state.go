// Package conversation holds the per-session memory of the weather assistant:
// the pinned dashboard location and snapshot, the full message history, and
// the ledger of data already fetched during the session.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("conversation not found")

// ToolLogEntry records one tool execution that reached the weather gateway.
// Calls served from the pinned snapshot or the ledger are not logged here.
type ToolLogEntry struct {
	Turn     int       `json:"turn"`
	Tool     string    `json:"tool"`
	Kind     string    `json:"kind"`
	Location string    `json:"location"`
	Failed   bool      `json:"failed"`
	At       time.Time `json:"at"`
}

// State is everything the assistant remembers about one dashboard session.
type State struct {
	ID             string            `json:"id"`
	PinnedLocation string            `json:"pinned_location"`
	PinnedSnapshot *weather.Snapshot `json:"pinned_snapshot"`

	// Messages is append-only and replayed in full to the backend each turn.
	Messages []llm.Message `json:"messages"`

	// Fetched maps FetchKey(kind, location) to the tool result content.
	Fetched map[string]string `json:"fetched"`

	// PendingConfirmation is the location the assistant asked permission to
	// fetch. Empty when nothing awaits a yes/no.
	PendingConfirmation string   `json:"pending_confirmation,omitempty"`
	PendingKind         string   `json:"pending_kind,omitempty"`
	ConfirmedLocations  []string `json:"confirmed_locations,omitempty"`

	// Turns counts completed user turns.
	Turns   int            `json:"turns"`
	ToolLog []ToolLogEntry `json:"tool_log,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// New returns a fresh state pinned to location.
func New(location string, snapshot *weather.Snapshot) *State {
	now := time.Now()
	return &State{
		PinnedLocation: location,
		PinnedSnapshot: snapshot,
		Messages:       make([]llm.Message, 0),
		Fetched:        make(map[string]string),
		Created:        now,
		Modified:       now,
	}
}

// FetchKey is the ledger key of a (kind, location) pair.
func FetchKey(kind, location string) string {
	return kind + "|" + weather.NormalizeName(location)
}

// Lookup returns the ledger entry for (kind, location).
func (s *State) Lookup(kind, location string) (string, bool) {
	content, ok := s.Fetched[FetchKey(kind, location)]
	return content, ok
}

// Record stores a successful tool result in the ledger.
func (s *State) Record(kind, location, content string) {
	if s.Fetched == nil {
		s.Fetched = make(map[string]string)
	}
	s.Fetched[FetchKey(kind, location)] = content
}

// IsPinned reports whether location names the dashboard location.
func (s *State) IsPinned(location string) bool {
	return weather.SameName(location, s.PinnedLocation)
}

// IsConfirmed reports whether the user agreed to fetch location.
func (s *State) IsConfirmed(location string) bool {
	for _, c := range s.ConfirmedLocations {
		if weather.SameName(c, location) {
			return true
		}
	}
	return false
}

// Confirm clears the pending confirmation and unlocks its location.
func (s *State) Confirm() string {
	location := s.PendingConfirmation
	if location != "" && !s.IsConfirmed(location) {
		s.ConfirmedLocations = append(s.ConfirmedLocations, location)
	}
	s.ClearPending()
	return location
}

// ClearPending drops any pending confirmation.
func (s *State) ClearPending() {
	s.PendingConfirmation = ""
	s.PendingKind = ""
}

// KnownLocations lists the pinned location, confirmed locations and every
// location with data in the ledger, without duplicates.
func (s *State) KnownLocations() []string {
	var known []string
	add := func(name string) {
		if name == "" {
			return
		}
		for _, k := range known {
			if weather.SameName(k, name) {
				return
			}
		}
		known = append(known, name)
	}

	add(s.PinnedLocation)
	for _, c := range s.ConfirmedLocations {
		add(c)
	}
	for _, entry := range s.ToolLog {
		if !entry.Failed {
			add(entry.Location)
		}
	}
	return known
}

// IsKnown reports whether location has been pinned, confirmed or fetched.
func (s *State) IsKnown(location string) bool {
	for _, k := range s.KnownLocations() {
		if weather.SameName(k, location) {
			return true
		}
	}
	return false
}

// LedgerFor returns the ledger entries of a location keyed by data kind.
func (s *State) LedgerFor(location string) map[string]string {
	out := make(map[string]string)
	for _, kind := range []string{weather.KindCurrent, weather.KindHourly, weather.KindDaily} {
		if content, ok := s.Lookup(kind, location); ok {
			out[kind] = content
		}
	}
	return out
}

// Store persists conversation state between turns.
type Store interface {
	// Create assigns an id when st.ID is empty and saves st.
	Create(ctx context.Context, st *State) error
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}
