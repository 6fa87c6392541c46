package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic is the MQTT topic for bowl alerts.
const DefaultTopic = "home/bowl/sensor/alerts"

// MQTTOptions configures an MQTTNotifier.
type MQTTOptions struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	// Timeout bounds connect and publish separately.
	Timeout time.Duration
}

// MQTTNotifier publishes alerts to a broker. It connects only for the
// duration of a notification so the radio can stay off between wakes.
type MQTTNotifier struct {
	opts      MQTTOptions
	newClient func(*paho.ClientOptions) paho.Client
}

// NewMQTTNotifier creates a notifier for the given broker.
func NewMQTTNotifier(opts MQTTOptions) *MQTTNotifier {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = "bowl-monitor"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &MQTTNotifier{opts: opts, newClient: paho.NewClient}
}

// Notify connects, publishes the alert at QoS 1 and disconnects.
func (n *MQTTNotifier) Notify(ctx context.Context, a Alert) error {
	payload, err := FormatPayload(a)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(n.opts.Broker).
		SetClientID(n.opts.ClientID).
		SetConnectTimeout(n.opts.Timeout).
		SetAutoReconnect(false)
	if n.opts.Username != "" {
		opts.SetUsername(n.opts.Username)
		opts.SetPassword(n.opts.Password)
	}

	client := n.newClient(opts)
	if err := waitToken(ctx, client.Connect(), n.opts.Timeout); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Disconnect(250)

	// QoS 1 (at-least-once): an alert is worth a duplicate.
	if err := waitToken(ctx, client.Publish(n.opts.Topic, 1, false, payload), n.opts.Timeout); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}
