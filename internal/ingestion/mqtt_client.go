package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cargo-tracker/internal/logger"
	pkgmqtt "cargo-tracker/pkg/mqtt"

	"go.uber.org/zap"
)

// MQTTIngestionConfig describes the topics devices publish on.
type MQTTIngestionConfig struct {
	RegisterTopic  string
	LocationTopic  string
	StatusTopic    string
	HeartbeatTopic string
	QoS            byte
}

// Subscriber is satisfied by pkg/mqtt.Client.
type Subscriber interface {
	Connect() error
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	Disconnect()
}

// MQTTIngestionClient wires MQTT device topics into the dispatcher.
// MQTT devices have no connection binding and cannot receive commands.
type MQTTIngestionClient struct {
	cfg        *MQTTIngestionConfig
	client     Subscriber
	dispatcher *Dispatcher

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

// NewMQTTIngestionClient builds a new MQTT client for ingestion.
func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, client Subscriber, dispatcher *Dispatcher) (*MQTTIngestionClient, error) {
	if cfg == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if client == nil {
		return nil, errors.New("mqtt client is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	return &MQTTIngestionClient{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
	}, nil
}

// Start establishes the MQTT connection and subscribes to the topics.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	type subscription struct {
		topic   string
		handler pkgmqtt.MessageHandler
	}

	subs := []subscription{}
	if c.cfg.RegisterTopic != "" {
		subs = append(subs, subscription{topic: c.cfg.RegisterTopic, handler: c.handleRegisterMessage})
	}
	if c.cfg.LocationTopic != "" {
		subs = append(subs, subscription{topic: c.cfg.LocationTopic, handler: c.handleLocationMessage})
	}
	if c.cfg.StatusTopic != "" {
		subs = append(subs, subscription{topic: c.cfg.StatusTopic, handler: c.handleStatusMessage})
	}
	if c.cfg.HeartbeatTopic != "" {
		subs = append(subs, subscription{topic: c.cfg.HeartbeatTopic, handler: c.handleHeartbeatMessage})
	}

	if len(subs) == 0 {
		return errors.New("no MQTT topics configured for ingestion")
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	for _, sub := range subs {
		if err := c.client.Subscribe(sub.topic, c.cfg.QoS, sub.handler); err != nil {
			c.client.Disconnect()
			c.subscriptions = nil
			return fmt.Errorf("subscribe failed for topic %s: %w", sub.topic, err)
		}
		c.subscriptions = append(c.subscriptions, sub.topic)
		logger.Info("Listening for GPS messages over MQTT", zap.String("topic", sub.topic))
	}

	c.started = true
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if len(c.subscriptions) > 0 {
		if err := c.client.Unsubscribe(c.subscriptions...); err != nil {
			logger.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
		}
	}

	c.client.Disconnect()
	c.started = false
	c.subscriptions = nil
}

func (c *MQTTIngestionClient) handleRegisterMessage(topic string, payload []byte) {
	msg, err := ParseRegister(payload)
	if err != nil {
		c.dropped(topic, err)
		return
	}
	if _, _, err := c.dispatcher.Register(msg, TransportMQTT, nil); err != nil {
		c.dropped(topic, err)
	}
}

func (c *MQTTIngestionClient) handleLocationMessage(topic string, payload []byte) {
	loc, err := ParseLocation(payload)
	if err != nil {
		c.dropped(topic, err)
		return
	}
	if _, err := c.dispatcher.Location(context.Background(), loc, TransportMQTT); err != nil {
		c.dropped(topic, err)
	}
}

func (c *MQTTIngestionClient) handleStatusMessage(topic string, payload []byte) {
	msg, err := ParseStatus(payload)
	if err != nil {
		c.dropped(topic, err)
		return
	}
	if err := c.dispatcher.Status(msg, TransportMQTT); err != nil {
		c.dropped(topic, err)
	}
}

func (c *MQTTIngestionClient) handleHeartbeatMessage(topic string, payload []byte) {
	msg, err := ParseHeartbeat(payload)
	if err != nil {
		c.dropped(topic, err)
		return
	}
	if err := c.dispatcher.Heartbeat(msg, TransportMQTT); err != nil {
		c.dropped(topic, err)
	}
}

func (c *MQTTIngestionClient) dropped(topic string, err error) {
	logger.Debug("MQTT message dropped",
		zap.String("topic", topic),
		zap.Error(err),
	)
}
