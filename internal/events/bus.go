// Package events provides in-process pub/sub for dashboard lifecycle
// events, consumed by the SSE endpoint and logs.
package events

import (
	"sync"
	"time"
)

// Event is one dashboard lifecycle notification.
type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	FolderID string    `json:"folderId,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Event types published by the aggregator and watcher.
const (
	TypeRunCompleted = "run_completed"
	TypeRunFailed    = "run_failed"
	TypeCacheCleared = "cache_cleared"
	TypeConfigReload = "config_reload"
)

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
