// Package events broadcasts panel state over MQTT so other displays can mirror the dashboard.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mission-control/internal/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Config holds MQTT publisher configuration.
type Config struct {
	// BrokerURL is the MQTT broker URL (e.g., "tcp://localhost:1883")
	BrokerURL string
	// ClientID is the unique identifier for this client
	ClientID string
	// TopicPrefix is prepended to every topic
	TopicPrefix string
	// ConnectTimeout bounds the initial connection
	ConnectTimeout time.Duration
	// KeepAlive interval
	KeepAlive time.Duration
	// QueueSize is the number of snapshots buffered before new ones are dropped
	QueueSize int
}

type message struct {
	topic    string
	snapshot interface{}
}

// Publisher publishes panel snapshots as retained JSON messages.
type Publisher struct {
	client  mqtt.Client
	logger  *zap.Logger
	config  *Config
	publish func(topic string, payload []byte) error

	mu        sync.RWMutex
	closed    bool
	queue     chan message
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPublisher creates a publisher with the given configuration. Call Connect before use.
func NewPublisher(config *Config, logger *zap.Logger) (*Publisher, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BrokerURL == "" {
		return nil, fmt.Errorf("broker URL cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.KeepAlive <= 0 {
		config.KeepAlive = 60 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetConnectTimeout(config.ConnectTimeout)
	opts.SetAutoReconnect(true)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Error("MQTT connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", config.BrokerURL))
	})

	p := &Publisher{
		client: mqtt.NewClient(opts),
		logger: logger,
		config: config,
		queue:  make(chan message, config.QueueSize),
	}
	p.publish = p.publishMQTT
	return p, nil
}

// Connect establishes connection to the broker and starts the publish loop.
func (p *Publisher) Connect() error {
	p.logger.Info("Connecting to MQTT broker", zap.String("broker", p.config.BrokerURL))

	token := p.client.Connect()
	if !token.WaitTimeout(p.config.ConnectTimeout) {
		return fmt.Errorf("connection timeout after %v", p.config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	p.start()
	return nil
}

func (p *Publisher) start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for msg := range p.queue {
			payload, err := json.Marshal(msg.snapshot)
			if err != nil {
				p.logger.Error("Failed to marshal panel snapshot",
					zap.String("topic", msg.topic),
					zap.Error(err))
				continue
			}
			if err := p.publish(msg.topic, payload); err != nil {
				p.logger.Warn("Failed to publish panel snapshot",
					zap.String("topic", msg.topic),
					zap.Error(err))
			}
		}
	}()
}

// PanelChanged queues a snapshot for publishing. It never blocks; when the
// queue is full or the publisher is closed the snapshot is dropped.
func (p *Publisher) PanelChanged(panel domain.Panel, snapshot interface{}) {
	msg := message{topic: Topic(p.config.TopicPrefix, panel), snapshot: snapshot}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("Panel snapshot dropped, publish queue full",
			zap.String("panel", string(panel)))
	}
}

// Close drains queued snapshots and disconnects from the broker.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()
		if p.client.IsConnected() {
			p.logger.Info("Disconnecting from MQTT broker")
			p.client.Disconnect(250)
		}
	})
}

func (p *Publisher) publishMQTT(topic string, payload []byte) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("client not connected")
	}

	token := p.client.Publish(topic, 1, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	p.logger.Debug("Message published",
		zap.String("topic", topic),
		zap.Int("size", len(payload)))
	return nil
}

// Topic returns the state topic of a panel.
func Topic(prefix string, panel domain.Panel) string {
	if prefix == "" {
		return fmt.Sprintf("panels/%s/state", panel)
	}
	return fmt.Sprintf("%s/panels/%s/state", prefix, panel)
}
