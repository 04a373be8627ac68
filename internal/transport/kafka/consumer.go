package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/logx"
)

// Message outcomes reported to the outcome counter.
const (
	OutcomeApplied   = "applied"
	OutcomeMalformed = "malformed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

const retryDelay = time.Second

// LocationUpdater applies a rider GPS fix to an order.
type LocationUpdater interface {
	UpdateOrderLocationAt(ctx context.Context, id string, lat, lng float64, recordedAt time.Time) (*domain.Order, error)
}

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer feeds rider locations from a sarama consumer group into the tracking service.
type Consumer struct {
	group    sarama.ConsumerGroup
	topic    string
	updater  LocationUpdater
	logger   logx.Logger
	outcomes *prometheus.CounterVec
}

// NewConsumer creates a consumer. It returns nil, nil when kafka is not
// configured, so callers can treat the feed as optional.
func NewConsumer(
	logger logx.Logger,
	brokers []string,
	groupID, topic string,
	updater LocationUpdater,
	outcomes *prometheus.CounterVec,
) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logx.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:    group,
		topic:    topic,
		updater:  updater,
		logger:   logger.With(logx.String("component", "kafka"), logx.String("topic", topic)),
		outcomes: outcomes,
	}, nil
}

// Run consumes until ctx is cancelled. Rebalances and transient errors
// restart the session.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

func (c *Consumer) observe(outcome string) {
	if c.outcomes != nil {
		c.outcomes.WithLabelValues(outcome).Inc()
	}
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim applies messages in partition order. A transient failure
// returns without marking so the message is redelivered.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	c := h.c
	for msg := range claim.Messages() {
		loc, err := decodeLocation(msg.Value)
		if err == nil {
			_, err = c.updater.UpdateOrderLocationAt(sess.Context(), loc.OrderID, loc.Lat, loc.Lng, loc.RecordedAt)
		}

		switch {
		case err == nil:
			c.observe(OutcomeApplied)
		case isMalformed(err):
			c.logger.Warn("kafka malformed location", logx.Int64("offset", msg.Offset), logx.Err(err))
			c.observe(OutcomeMalformed)
		case isPermanent(err):
			c.logger.Info("kafka location skipped", logx.OrderID(loc.OrderID), logx.Err(err))
			c.observe(OutcomeSkipped)
		default:
			c.logger.Error("kafka location failed, retry", logx.OrderID(loc.OrderID), logx.Err(err))
			c.observe(OutcomeFailed)
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
