package mocks

import (
	"slices"
	"sync"
)

type Event struct {
	Topic string
	Name  string
	Data  any
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (m *MockPublisher) Publish(topic, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Topic: topic, Name: event, Data: data})
}

func (m *MockPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
