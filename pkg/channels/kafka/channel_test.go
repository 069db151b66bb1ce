package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/channels/kafka"
)

func TestBrokersFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected []string
	}{
		{name: "single broker", env: "localhost:9092", expected: []string{"localhost:9092"}},
		{name: "multiple with whitespace", env: "a:9092, b:9092 ,c:9092", expected: []string{"a:9092", "b:9092", "c:9092"}},
		{name: "empty entries dropped", env: "a:9092,,", expected: []string{"a:9092"}},
		{name: "unset", env: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", tt.env)

			assert.Equal(t, tt.expected, kafka.BrokersFromEnv())
		})
	}
}

func TestCreateChannelRequiresBrokers(t *testing.T) {
	t.Parallel()

	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, "maestro", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
