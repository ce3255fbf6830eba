// Package depthfeed publishes periodic per-symbol depth snapshots to
// Kafka for downstream market-data consumers.
package depthfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"kestrel/domain/book"
)

// DepthSource is the read surface the feed needs from the service.
type DepthSource interface {
	Symbols() []string
	Depth(symbol string) book.Depth
}

type Feed struct {
	src      DepthSource
	writer   *kafka.Writer
	interval time.Duration
	log      zerolog.Logger
}

func New(src DepthSource, brokers []string, topic string, interval time.Duration, log zerolog.Logger) *Feed {
	return &Feed{
		src: src,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		interval: interval,
		log:      log,
	}
}

func (f *Feed) Run(ctx context.Context) {
	f.log.Info().Msg("depth feed started")

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.publishOnce(ctx)
		}
	}
}

func (f *Feed) publishOnce(ctx context.Context) {
	for _, symbol := range f.src.Symbols() {
		depth := f.src.Depth(symbol)
		value, err := json.Marshal(depth)
		if err != nil {
			continue
		}
		err = f.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(symbol),
			Value: value,
		})
		if err != nil {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("depth publish failed")
		}
	}
}

func (f *Feed) Close() error {
	return f.writer.Close()
}
