// Package broadcaster drains the trade outbox to Kafka. Delivery is
// at-least-once: a record is marked SENT before the publish attempt
// and ACKED only after the broker confirms it, so a crash between the
// two re-sends on the next pass.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"kestrel/infra/metrics"
	"kestrel/infra/outbox"
)

type Broadcaster struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      zerolog.Logger
}

func New(
	ob *outbox.Outbox,
	brokers []string,
	topic string,
	interval time.Duration,
	log zerolog.Logger,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info().Str("topic", b.topic).Msg("broadcaster started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.outbox.ScanPending(func(rec *outbox.Record) error {
		now := time.Now().UnixNano()
		if err := b.outbox.UpdateState(rec.Seq, outbox.StateSent, rec.Retries, now); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn().Err(err).Uint64("seq", rec.Seq).Msg("publish failed, will retry")
			return b.outbox.UpdateState(rec.Seq, outbox.StateFailed, rec.Retries+1, now)
		}

		if err := b.outbox.UpdateState(rec.Seq, outbox.StateAcked, rec.Retries, now); err != nil {
			return err
		}
		metrics.OutboxPending.Dec()
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Msg("outbox scan failed")
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
