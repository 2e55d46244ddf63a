package control_api

import (
	"sync"

	"quote-bridge/src/models"
	"quote-bridge/src/utils"
)

// FeedEvent is one item pushed to live presentation listeners.
type FeedEvent struct {
	Kind   string                  `json:"kind"` // "log" or "status"
	Log    *models.MLogEntry       `json:"log,omitempty"`
	Status *models.MStatusSnapshot `json:"status,omitempty"`
}

const listenerBuffer = 64

// LogFeed is the supervisor's presenter: it keeps a bounded log history and
// fans events out to live listeners. Slow listeners miss events rather than
// block the supervisor.
type LogFeed struct {
	history *utils.RingBuffer

	mu        sync.Mutex
	listeners map[chan FeedEvent]struct{}
}

func NewLogFeed(historySize int) *LogFeed {
	return &LogFeed{
		history:   utils.NewRingBuffer(historySize),
		listeners: make(map[chan FeedEvent]struct{}),
	}
}

func (f *LogFeed) OnLog(entry models.MLogEntry) {
	f.history.Append(entry)
	f.fanOut(FeedEvent{Kind: "log", Log: &entry})
}

func (f *LogFeed) OnStatus(snapshot models.MStatusSnapshot) {
	f.fanOut(FeedEvent{Kind: "status", Status: &snapshot})
}

// Recent returns up to n entries, oldest first.
func (f *LogFeed) Recent(n int) []models.MLogEntry {
	return f.history.GetLatest(n)
}

// Listen registers a live listener. The returned func unregisters it.
func (f *LogFeed) Listen() (<-chan FeedEvent, func()) {
	ch := make(chan FeedEvent, listenerBuffer)

	f.mu.Lock()
	f.listeners[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, ch)
			f.mu.Unlock()
		})
	}
}

func (f *LogFeed) fanOut(ev FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
