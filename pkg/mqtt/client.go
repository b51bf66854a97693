package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/saaga0h/atdesk-features/pkg/config"
)

// mqttClient implements the Client interface using the Paho MQTT client
type mqttClient struct {
	client      pahomqtt.Client
	cfg         *config.Config
	logger      *slog.Logger
	statusTopic string

	mu            sync.Mutex
	subscriptions map[string]subscription
}

type subscription struct {
	qos     byte
	handler pahomqtt.MessageHandler
}

// NewClient creates a new MQTT client with the given configuration.
// The broker retains an offline marker on the service status topic if the
// connection drops without a clean disconnect.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	m := &mqttClient{
		cfg:           cfg,
		logger:        logger.With("component", "mqtt"),
		statusTopic:   StatusTopic(cfg.ServiceName),
		subscriptions: make(map[string]subscription),
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTAddress())

	if cfg.MQTTClientID != "" {
		opts.SetClientID(cfg.MQTTClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("%s-%d", cfg.ServiceName, time.Now().Unix()))
	}

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetWill(m.statusTopic, StatusOffline, 1, true)

	opts.OnConnect = m.onConnect
	opts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		m.logger.Warn("MQTT connection lost", "error", err)
	}
	opts.OnReconnecting = func(c pahomqtt.Client, opts *pahomqtt.ClientOptions) {
		m.logger.Info("MQTT reconnecting...")
	}

	m.client = pahomqtt.NewClient(opts)
	return m
}

// onConnect announces availability and restores subscriptions lost with a
// clean session
func (m *mqttClient) onConnect(c pahomqtt.Client) {
	m.logger.Info("Connected to MQTT broker", "broker", m.cfg.MQTTAddress())

	c.Publish(m.statusTopic, 1, true, StatusOnline)

	m.mu.Lock()
	subs := make(map[string]subscription, len(m.subscriptions))
	for topic, sub := range m.subscriptions {
		subs[topic] = sub
	}
	m.mu.Unlock()

	for topic, sub := range subs {
		token := c.Subscribe(topic, sub.qos, sub.handler)
		token.Wait()
		if token.Error() != nil {
			m.logger.Error("Failed to restore subscription", "topic", topic, "error", token.Error())
		}
	}
}

// Connect establishes a connection to the MQTT broker
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.cfg.MQTTAddress())

	token := m.client.Connect()

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect marks the service offline and closes the connection
func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	if m.client.IsConnected() {
		token := m.client.Publish(m.statusTopic, 1, true, StatusOffline)
		token.WaitTimeout(time.Second)
	}
	m.client.Disconnect(250)
}

// Subscribe subscribes to a topic with the given QoS and handler
func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	m.logger.Info("Subscribing to MQTT topic", "topic", topic, "qos", qos)

	pahoHandler := func(client pahomqtt.Client, msg pahomqtt.Message) {
		handler(&mqttMessage{msg: msg})
	}

	token := m.client.Subscribe(topic, qos, pahoHandler)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	m.mu.Lock()
	m.subscriptions[topic] = subscription{qos: qos, handler: pahoHandler}
	m.mu.Unlock()

	return nil
}

// Publish publishes a message to a topic
func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Published message", "topic", topic, "size", len(payload))
	return nil
}

// IsConnected returns whether the client is currently connected
func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}

// mqttMessage wraps a Paho MQTT message to implement our Message interface
type mqttMessage struct {
	msg pahomqtt.Message
}

func (m *mqttMessage) Topic() string   { return m.msg.Topic() }
func (m *mqttMessage) Payload() []byte { return m.msg.Payload() }
func (m *mqttMessage) Ack()            { m.msg.Ack() }
