package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// TopicPrefix + elder uid is where a family member's app listens.
const TopicPrefix = "seniorbuddy/alerts/"

// PublishTimeout bounds the wait for the broker's PUBACK. A reconnecting
// client queues QoS 1 publishes and leaves their tokens open until the
// broker is back.
const PublishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("alert publish timed out")

type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// MQTTNotifier publishes alerts as JSON with QoS 1 so a briefly
// disconnected family app still gets them from the broker.
type MQTTNotifier struct {
	client  mqtt.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewMQTTNotifier(opts MQTTOptions, logger *zap.Logger) (*MQTTNotifier, error) {
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(opts.ClientID)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		o.SetPassword(opts.Password)
	}
	o.SetAutoReconnect(true)
	o.SetCleanSession(true)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(o)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect mqtt broker: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", err)
	}

	logger.Info("mqtt alerts connected", zap.String("broker", opts.Broker))
	return newMQTTNotifier(client, PublishTimeout, logger), nil
}

func newMQTTNotifier(client mqtt.Client, timeout time.Duration, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, timeout: timeout, logger: logger}
}

func (n *MQTTNotifier) Notify(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	timer := time.NewTimer(n.timeout)
	defer timer.Stop()

	token := n.client.Publish(TopicPrefix+a.ElderUID, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish alert: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("publish alert: %w", ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
