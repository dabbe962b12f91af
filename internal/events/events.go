// Package events carries progress notifications from the remediation loop
// and the STA/LLM collaborators out to whoever is watching: the CLI status
// line, the JSONL logger, or a test.
package events

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSessionStart    EventType = "session.start"
	EventSessionComplete EventType = "session.complete"

	EventIterationStart EventType = "iteration.start"

	EventSTAStart    EventType = "sta.start"
	EventSTAComplete EventType = "sta.complete"

	EventTimingParsed EventType = "timing.parsed"

	EventProposalRequest  EventType = "proposal.request"
	EventProposalReceived EventType = "proposal.received"
	EventDesignUpdated    EventType = "design.updated"

	EventLLMRetry EventType = "llm.retry"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Source    string
	Data      interface{}
	SessionID string
}

type Handler func(Event)

// Bus is a synchronous publish/subscribe hub with a bounded history ring.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	history     []Event
	maxHistory  int
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		history:     make([]Event, 0),
		maxHistory:  100,
	}
}

func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers["*"] = append(b.subscribers["*"], handler)
}

func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > b.maxHistory {
		b.history = b.history[1:]
	}

	handlers := make([]Handler, 0)
	handlers = append(handlers, b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers["*"]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (b *Bus) RecentEvents(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > len(b.history) {
		n = len(b.history)
	}
	return b.history[len(b.history)-n:]
}

func (b *Bus) RecentByType(eventType EventType, n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for i := len(b.history) - 1; i >= 0 && len(result) < n; i-- {
		if b.history[i].Type == eventType {
			result = append(result, b.history[i])
		}
	}
	return result
}
