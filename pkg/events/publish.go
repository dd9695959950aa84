package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

const SequenceNumberMetadataKey = "sequence_number"

// PublisherManager distributes payloads to a set of Publishers, each
// subscribed on a topic, and stamps every outgoing message with a sequence
// number in the order Publish was called.
type PublisherManager struct {
	Publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		Publishers: make(map[string][]message.Publisher),
	}
}

func (s *PublisherManager) SubscribePublisher(topic string, sub message.Publisher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Publishers[topic] = append(s.Publishers[topic], sub)
}

// Publish serializes payload to JSON and hands it to every publisher. ctx is
// attached to the message so decorators can read the correlation ID.
// Errors from individual publishers are logged, not returned.
func (s *PublisherManager) Publish(ctx context.Context, payload interface{}) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	seq := s.sequenceNumber
	s.sequenceNumber++

	for topic, subs := range s.Publishers {
		for _, sub := range subs {
			msg := message.NewMessage(watermill.NewUUID(), b)
			msg.SetContext(ctx)
			msg.Metadata.Set(SequenceNumberMetadataKey, fmt.Sprintf("%d", seq))
			err = sub.Publish(topic, msg)
			if err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish")
			}
		}
	}

	return nil
}

func (s *PublisherManager) PublishBlind(ctx context.Context, payload interface{}) {
	err := s.Publish(ctx, payload)
	if err != nil {
		log.Warn().Err(err).Msg("failed to publish")
	}
}
