// Package kafka provides the Kafka channel used by the event bus in
// production deployments.
package kafka

import (
	"errors"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

// BrokersFromEnv reads the broker list from KAFKA_BROKERS, a comma
// separated list of host:port entries. Whitespace around entries is
// tolerated; empty entries are dropped.
func BrokersFromEnv() []string {
	var brokers []string

	for _, broker := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}

// CreateChannel builds a Kafka publisher/subscriber pair for run lifecycle
// events. The consumer group and client ID are derived from serviceName so
// multiple maestro services can share a cluster without stealing each
// other's events.
func CreateChannel(logger watermill.LoggerAdapter, serviceName string, brokers []string) (*kafka.Publisher, *kafka.Subscriber, error) {
	if len(brokers) == 0 {
		return nil, nil, errors.New("no kafka brokers configured (set KAFKA_BROKERS)")
	}

	subscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	subscriberConfig.ClientID = serviceName
	// Replay from the oldest offset so a restarted consumer sees run
	// events published while it was down.
	subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subscriberConfig,
			ConsumerGroup:         serviceName + "-runs",
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	publisherConfig := sarama.NewConfig()
	publisherConfig.ClientID = serviceName
	publisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	return publisher, subscriber, nil
}
