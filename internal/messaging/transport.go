package messaging

import (
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const metadataTopic = "topic"

// SubscriberFactory returns the subscriber a named consumer reads from.
// Every consumer name must see every event published on its topics.
type SubscriberFactory func(consumer string) (message.Subscriber, error)

// Transport owns the publisher and every subscriber events travel through.
type Transport struct {
	publisher     message.Publisher
	newSubscriber SubscriberFactory

	mu          sync.Mutex
	subscribers []message.Subscriber
}

// NewTransport wraps a publisher and a per-consumer subscriber factory.
func NewTransport(publisher message.Publisher, newSubscriber SubscriberFactory) *Transport {
	return &Transport{publisher: publisher, newSubscriber: newSubscriber}
}

// Shared is a SubscriberFactory handing the same subscriber to every
// consumer. Only fan-out subscribers, such as gochannel, may be shared.
func Shared(subscriber message.Subscriber) SubscriberFactory {
	return func(string) (message.Subscriber, error) {
		return subscriber, nil
	}
}

// NewInProcessTransport delivers events over Go channels inside the process.
func NewInProcessTransport(logger watermill.LoggerAdapter) *Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logger)

	return NewTransport(pubSub, Shared(pubSub))
}

// RedisConsumerGroup names the stream consumer group of one consumer kind.
// Processes running the same consumer share its group and split the work;
// different consumers each read the whole stream.
func RedisConsumerGroup(prefix, consumer string) string {
	return prefix + "." + consumer
}

// NewRedisStreamTransport delivers events through Redis streams. Each
// consumer reads through its own consumer group named after groupPrefix.
func NewRedisStreamTransport(
	client redis.UniversalClient, groupPrefix string, logger watermill.LoggerAdapter,
) (*Transport, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, logger)
	if err != nil {
		return nil, err
	}

	return NewTransport(publisher, func(consumer string) (message.Subscriber, error) {
		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: RedisConsumerGroup(groupPrefix, consumer),
		}, logger)
	}), nil
}

// Publisher returns the underlying message publisher for creating typed publish functions.
func (t *Transport) Publisher() message.Publisher {
	return t.publisher
}

// Subscriber returns the subscriber for the named consumer. The transport
// closes it on Shutdown.
func (t *Transport) Subscriber(consumer string) (message.Subscriber, error) {
	subscriber, err := t.newSubscriber(consumer)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, known := range t.subscribers {
		if known == subscriber {
			return subscriber, nil
		}
	}

	t.subscribers = append(t.subscribers, subscriber)

	return subscriber, nil
}

// Shutdown closes the publisher and every subscriber handed out.
func (t *Transport) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	errs := []error{t.publisher.Close()}

	for _, subscriber := range t.subscribers {
		if any(subscriber) == any(t.publisher) {
			continue
		}

		errs = append(errs, subscriber.Close())
	}

	t.subscribers = nil

	return errors.Join(errs...)
}
