package broadcast

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cargo-tracker/internal/domain/gps"

	"github.com/goccy/go-json"
)

// Publisher is satisfied by pkg/mqtt.Client.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTT publishes each update to <baseTopic>/<bookingId>.
type MQTT struct {
	publisher Publisher
	baseTopic string
	qos       byte
}

func NewMQTT(publisher Publisher, baseTopic string, qos byte) *MQTT {
	return &MQTT{
		publisher: publisher,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		qos:       qos,
	}
}

func (b *MQTT) Topic(bookingID int64) string {
	return b.baseTopic + "/" + strconv.FormatInt(bookingID, 10)
}

func (b *MQTT) Broadcast(ctx context.Context, update *gps.LocationUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal tracking update: %w", err)
	}

	topic := b.Topic(update.BookingID)
	if err := b.publisher.Publish(topic, b.qos, false, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
