// Package events fans run lifecycle notifications out to SSE subscribers.
package events

import (
	"encoding/json"
	"sync"

	"jobscout-engine/internal/domain"
)

// Event is one run lifecycle notification, serialized as-is onto the SSE feed.
type Event struct {
	Type         string           `json:"type"` // run_started | run_finished
	RunID        string           `json:"runId"`
	AutomationID int64            `json:"automationId"`
	Status       domain.RunStatus `json:"status"`
	Counts       domain.RunCounts `json:"counts"`
}

type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 10)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.publish(string(b))
}

func (h *Hub) publish(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// drop if slow
		}
	}
}

// RunStarted and RunFinished are the two events the runner emits.

func RunStarted(run *domain.AutomationRun) Event {
	return Event{Type: "run_started", RunID: run.ID, AutomationID: run.AutomationID, Status: run.Status}
}

func RunFinished(run *domain.AutomationRun) Event {
	return Event{
		Type:         "run_finished",
		RunID:        run.ID,
		AutomationID: run.AutomationID,
		Status:       run.Status,
		Counts:       run.Counts,
	}
}
