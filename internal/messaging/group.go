package messaging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup manages multiple consumers with unified lifecycle.
// The subscriber the consumers read from is owned by the Transport.
type ConsumerGroup struct {
	consumers []Runnable
	started   int
	logger    *zap.Logger
}

// NewConsumerGroup creates a new consumer group.
func NewConsumerGroup(logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{logger: logger}
}

// Add registers a consumer to the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Len reports how many consumers are registered.
func (g *ConsumerGroup) Len() int {
	return len(g.consumers)
}

// Start starts all consumers in the group.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			// Shutdown already started consumers on failure
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			g.started = 0

			return fmt.Errorf("start consumer %s: %w", consumerName(i, consumer), err)
		}

		g.started = i + 1
	}

	names := make([]string, len(g.consumers))
	for i, consumer := range g.consumers {
		names[i] = consumerName(i, consumer)
	}

	g.logger.Info("consumer group started", zap.Strings("consumers", names))

	return nil
}

// consumerName prefers a consumer's own name and falls back to its position.
func consumerName(i int, consumer Runnable) string {
	if named, ok := consumer.(interface{ Name() string }); ok {
		return named.Name()
	}

	return fmt.Sprintf("#%d", i)
}

// Shutdown stops all started consumers.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var firstErr error

	for _, consumer := range g.consumers[:g.started] {
		if err := consumer.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	g.started = 0

	return firstErr
}
