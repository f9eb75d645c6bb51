package relay

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBroker = "tcp://broker.emqx.io:1883"
	DefaultTopic  = "Awi7LJfyyn6LPjg/15046220"
)

// MQTTConfig holds the broker settings
type MQTTConfig struct {
	Broker   string        `mapstructure:"broker"`
	Topic    string        `mapstructure:"topic"`
	ClientID string        `mapstructure:"client_id"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	QoS      byte          `mapstructure:"qos"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MQTTSource subscribes to one topic and reconnects on its own
type MQTTSource struct {
	cfg    MQTTConfig
	client mqtt.Client
	logger logrus.FieldLogger
}

// NewMQTTSource creates an MQTT frame source
func NewMQTTSource(cfg MQTTConfig, logger logrus.FieldLogger) *MQTTSource {
	if cfg.Broker == "" {
		cfg.Broker = DefaultBroker
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("fieldmaestro-%d", time.Now().UnixNano())
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MQTTSource{
		cfg:    cfg,
		logger: logger.WithFields(logrus.Fields{"broker": cfg.Broker, "topic": cfg.Topic}),
	}
}

func (s *MQTTSource) clientOptions(onFrame func(topic, payload string), onConnect func()) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		onFrame(msg.Topic(), string(msg.Payload()))
	}

	// A clean session drops subscriptions on reconnect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, handler)
		if token.WaitTimeout(s.cfg.Timeout) && token.Error() != nil {
			s.logger.WithError(token.Error()).Error("❌ Subscribe failed")
			return
		}
		onConnect()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.WithError(err).Warn("Connection to broker lost")
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		s.logger.Info("Reconnecting to broker")
	})

	return opts
}

// Start connects to the broker
func (s *MQTTSource) Start(ctx context.Context, onFrame func(topic, payload string), onConnect func()) error {
	s.client = mqtt.NewClient(s.clientOptions(onFrame, onConnect))

	s.logger.Info("Connecting to broker")
	token := s.client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", s.cfg.Broker, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.Timeout):
		// ConnectRetry keeps trying in the background
		s.logger.Warn("Broker not reachable yet, retrying in background")
	}

	return nil
}

// Stop disconnects from the broker
func (s *MQTTSource) Stop() {
	if s.client != nil {
		s.client.Disconnect(250)
	}
}
