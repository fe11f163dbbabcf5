// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"testing"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := New()

	var got any
	b.Subscribe("topic.a", func(ctx context.Context, payload any) {
		got = payload
	})

	b.Publish(context.Background(), "topic.a", "hello")
	if got != "hello" {
		t.Fatalf("expected payload delivery, got %v", got)
	}
}

func TestPublishUnknownTopicIsNoop(t *testing.T) {
	b := New()
	b.Publish(context.Background(), "nobody.home", struct{}{})
}

func TestTopicsAreIndependent(t *testing.T) {
	b := New()

	aCalls := 0
	bCalls := 0
	b.Subscribe("topic.a", func(ctx context.Context, payload any) { aCalls++ })
	b.Subscribe("topic.b", func(ctx context.Context, payload any) { bCalls++ })

	b.Publish(context.Background(), "topic.a", nil)
	b.Publish(context.Background(), "topic.a", nil)
	b.Publish(context.Background(), "topic.b", nil)

	if aCalls != 2 || bCalls != 1 {
		t.Fatalf("expected isolated delivery, got a=%d b=%d", aCalls, bCalls)
	}
}

func TestSubscribersRunInOrder(t *testing.T) {
	b := New()

	var order []int
	b.Subscribe("topic.a", func(ctx context.Context, payload any) { order = append(order, 1) })
	b.Subscribe("topic.a", func(ctx context.Context, payload any) { order = append(order, 2) })

	b.Publish(context.Background(), "topic.a", nil)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected subscription order, got %v", order)
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	b := New()
	b.Subscribe("topic.a", nil)
	b.Publish(context.Background(), "topic.a", nil)
}
