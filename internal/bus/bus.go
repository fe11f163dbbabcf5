// SPDX-License-Identifier: Apache-2.0

// Package bus is a minimal in-process publish/subscribe dispatcher. Features
// publish named domain events; analytics listeners subscribe to exactly one
// topic each. Handlers run synchronously on the publisher's goroutine and
// are expected to swallow their own failures.
package bus

import (
	"context"
	"sync"
)

type Handler func(ctx context.Context, payload any)

type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

func New() *Bus {
	return &Bus{
		subs: make(map[string][]Handler, 8),
	}
}

// Subscribe registers h for every future publish on topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish delivers payload to every subscriber of topic, in subscription
// order. Publishing to a topic with no subscribers is a no-op.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, payload)
	}
}
