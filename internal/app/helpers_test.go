package app

import (
	"sync"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
)

// inbox is a NotificationChannel that keeps what it receives.
type inbox struct {
	mu     sync.Mutex
	events []core.Event
	dead   bool
}

func (c *inbox) Send(evt core.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return core.ErrChannelDead
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *inbox) received(t core.EventType) []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (c *inbox) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

var defaultConfig = domain.RoomConfig{Rounds: 3, SecondsPerRound: 60}

func newRegistry() (*RoomRegistry, *core.RoomDirectoryNotifier) {
	dir := core.NewRoomDirectoryNotifier()
	return NewRoomRegistry(NewCodeGenerator(), dir), dir
}
