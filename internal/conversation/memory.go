package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. States are stored encoded,
// so callers only ever mutate their own copy until they Save it.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Create(ctx context.Context, st *State) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	return m.Save(ctx, st)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode conversation %q: %w", id, err)
	}
	return &st, nil
}

func (m *MemoryStore) Save(_ context.Context, st *State) error {
	if st.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	st.Modified = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", st.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.ID] = data
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}
