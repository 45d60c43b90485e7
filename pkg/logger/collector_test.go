package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type slowPublisher struct {
	delay time.Duration
	mu    sync.Mutex
	got   []AggregatedLogEntry
}

func (p *slowPublisher) PublishMessage(_ context.Context, _ string, payload any) error {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, payload.([]AggregatedLogEntry)...)
	return nil
}

func (p *slowPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.got {
		n += e.Count
	}
	return n
}

func TestCollectorAggregatesRepeats(t *testing.T) {
	pub := &slowPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	for range 3 {
		c.AddLog("error", "boom", map[string]any{"sink": "kafka"}, "a.go:1")
	}
	c.AddLog("error", "boom", map[string]any{"sink": "redis"}, "a.go:1")
	c.Close()

	if len(pub.got) != 2 || pub.count() != 4 {
		t.Fatalf("published %d entries with %d lines, want 2 and 4", len(pub.got), pub.count())
	}
}

func TestCollectorCloseWaitsForEarlyFlush(t *testing.T) {
	pub := &slowPublisher{delay: 50 * time.Millisecond}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 1, Topic: "logs", Publisher: pub})

	c.AddLog("error", "boom", nil, "a.go:1")
	c.Close()

	if got := pub.count(); got != 1 {
		t.Fatalf("published %d lines after Close, want 1", got)
	}

	c.AddLog("error", "late", nil, "a.go:2")
	if got := pub.count(); got != 1 {
		t.Fatalf("closed collector published %d lines", got)
	}
}
