package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryClient is a deterministic in-memory Client, the default when no
// real calendar/tasks backend is configured.
type MemoryClient struct {
	mu     sync.Mutex
	events []Event
	lists  map[string][]TaskItem // keyed by lowercased list title
}

// NewMemoryClient creates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{lists: make(map[string][]TaskItem)}
}

// SeedEvents replaces the event set (used by tests/fixtures).
func (m *MemoryClient) SeedEvents(events []Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

func (m *MemoryClient) ListEvents(ctx context.Context, window Window) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if !e.Start.Before(window.Start) && e.Start.Before(window.End) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryClient) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TaskList, 0, len(m.lists))
	for key := range m.lists {
		out = append(out, TaskList{ID: key, Title: key})
	}
	return out, nil
}

func (m *MemoryClient) ListItems(ctx context.Context, listTitle string) ([]TaskItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TaskItem(nil), m.lists[strings.ToLower(listTitle)]...), nil
}

func (m *MemoryClient) AddItem(ctx context.Context, listTitle, item string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(listTitle)
	m.lists[key] = append(m.lists[key], TaskItem{ID: fmt.Sprintf("%s-%d", key, len(m.lists[key])+1), Title: item})
	return nil
}

func (m *MemoryClient) RemoveItem(ctx context.Context, listTitle, item string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(listTitle)
	items := m.lists[key]
	for i, it := range items {
		if strings.EqualFold(it.Title, item) {
			m.lists[key] = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

var _ Client = (*MemoryClient)(nil)
