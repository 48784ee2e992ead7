// Package kafka publishes ingestion status events so downstream consumers
// can track document processing without polling the registry.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"studypal/internal/config"
	"studypal/pkg/logger"
)

// Client holds the writer for the status topic.
type Client struct {
	Writer *kafka.Writer
	Config *config.KafkaConfig
	log    *logger.Logger
}

// NewClient connects to the first configured broker, creates the status topic
// if it is missing, and builds a writer for it.
func NewClient(cfg *config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no kafka topic configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("read kafka partitions: %w", err)
	}

	exists := false
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			exists = true
			break
		}
	}
	if !exists {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.Topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("create kafka topic %q: %w", cfg.Topic, err)
		}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	log := logger.New("kafka")
	log.WithField("topic", cfg.Topic).Info("connected to kafka")
	return &Client{Writer: writer, Config: cfg, log: log}, nil
}

// Close flushes and closes the writer.
func (c *Client) Close() error {
	if c.Writer != nil {
		return c.Writer.Close()
	}
	return nil
}

// HealthCheck verifies a broker is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", c.Config.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return conn.Close()
}
