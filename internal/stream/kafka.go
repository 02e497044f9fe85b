package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaSource consumes inbound messages from the bridge topic.
type KafkaSource struct {
	reader *kafka.Reader
	log    *slog.Logger
}

func NewKafkaSource(brokers []string, topic, groupID string, log *slog.Logger) *KafkaSource {
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		log: log,
	}
}

// Run reads until ctx is canceled. Malformed events are logged and
// skipped; they never stall the stream.
func (s *KafkaSource) Run(ctx context.Context, h Handler) error {
	for {
		m, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		msg, err := decodeInbound(m.Value)
		if err != nil {
			s.log.Warn("dropping malformed inbound event", "offset", m.Offset, "error", err)
			continue
		}
		h(ctx, msg)
	}
}

func (s *KafkaSource) Close() error { return s.reader.Close() }

func decodeInbound(value []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return Message{}, err
	}
	if msg.Sender == "" || msg.Text == "" {
		return Message{}, errors.New("inbound event missing sender or text")
	}
	return msg, nil
}

// Reply is the outbound payload the bridge posts back to the platform.
type Reply struct {
	Text      string `json:"text"`
	InReplyTo string `json:"in_reply_to"`
}

// KafkaResponder publishes replies onto the outbound bridge topic.
type KafkaResponder struct {
	writer *kafka.Writer
}

func NewKafkaResponder(brokers []string, topic string) *KafkaResponder {
	return &KafkaResponder{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (r *KafkaResponder) Post(ctx context.Context, text, inReplyTo string) error {
	data, err := json.Marshal(Reply{Text: text, InReplyTo: inReplyTo})
	if err != nil {
		return err
	}
	return r.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

func (r *KafkaResponder) Close() error { return r.writer.Close() }
