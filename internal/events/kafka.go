package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer bridges local persisted-message events onto a Kafka topic so
// sibling instances can broadcast to their own connections.
type Producer struct {
	writer     *kafka.Writer
	instanceID string
}

func NewProducer(brokers []string, topic, instanceID string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: w, instanceID: instanceID}
}

func (p *Producer) Publish(ctx context.Context, ev MessagePersisted) error {
	ev.InstanceID = p.instanceID
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Message.RoomID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error { return p.writer.Close() }

// Consumer reads persisted-message events published by other instances
// and feeds them into the local dispatcher. Events carrying our own
// instance id are dropped: the local dispatch already handled them.
type Consumer struct {
	reader     *kafka.Reader
	instanceID string
	log        *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID, instanceID string, log *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: r, instanceID: instanceID, log: log}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, d *Dispatcher) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Errorw("kafka read", "error", err)
			time.Sleep(time.Second)
			continue
		}
		var ev MessagePersisted
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			c.log.Warnw("kafka event decode", "error", err)
			continue
		}
		if ev.InstanceID == c.instanceID || ev.Message == nil {
			continue
		}
		d.Dispatch(ctx, ev)
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
