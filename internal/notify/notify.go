// Package notify receives push notifications for the signed-in operator and
// keeps the most recent ones for the console feed.
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"fleetconsole/internal/domain/models"
)

type Entry struct {
	models.Notification
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Sink is a bounded feed, newest first.
type Sink struct {
	mu    sync.Mutex
	max   int
	items []Entry
	now   func() time.Time
}

func NewSink(max int) *Sink {
	if max <= 0 {
		max = 50
	}
	return &Sink{max: max, now: time.Now}
}

func (s *Sink) Push(source string, n models.Notification) {
	if n.Title == "" && n.Body == "" {
		return
	}
	s.mu.Lock()
	s.items = append([]Entry{{Notification: n, Source: source, ReceivedAt: s.now()}}, s.items...)
	if len(s.items) > s.max {
		s.items = s.items[:s.max]
	}
	s.mu.Unlock()
	log.Printf("[NOTIFY] source=%s title=%q", source, n.Title)
}

func (s *Sink) Recent() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.items...)
}

// Source delivers notifications into a sink until ctx ends or the
// connection fails.
type Source interface {
	Name() string
	Run(ctx context.Context, sink *Sink) error
}

// Supervise keeps src running, waiting delay between reconnects.
func Supervise(ctx context.Context, src Source, sink *Sink, delay time.Duration) {
	for {
		err := src.Run(ctx, sink)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("[NOTIFY] source=%s stopped: %v", src.Name(), err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
