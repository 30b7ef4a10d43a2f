package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestHeaderCarrier_SetAndGet(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("value1")}}
	carrier := NewHeaderCarrier(&headers)

	assert.Equal(t, "value1", carrier.Get("existing"))
	assert.Empty(t, carrier.Get("missing"))

	carrier.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier.Get("traceparent"))

	carrier.Set("existing", "updated")
	assert.Equal(t, "updated", carrier.Get("existing"))
	assert.Len(t, headers, 2)
}

func TestHeaderCarrier_Keys(t *testing.T) {
	headers := []kafka.Header{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}
	assert.ElementsMatch(t, []string{"a", "b"}, NewHeaderCarrier(&headers).Keys())

	var empty []kafka.Header
	assert.Empty(t, NewHeaderCarrier(&empty).Keys())
}
