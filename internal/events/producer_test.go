package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"honeydesk/internal/events"
)

func TestProducerWithoutBrokersIsNoop(t *testing.T) {
	p := events.NewProducer(nil, "honeydesk.events", nil)
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), events.OrderPlaced, map[string]any{"order_id": 1})
	})
	assert.NoError(t, p.Close())

	var _ events.Publisher = p
	var _ events.Publisher = events.Nop{}
}
