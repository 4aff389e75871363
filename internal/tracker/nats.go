package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/metrics"
)

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Message is the envelope published for each summary
type Message struct {
	Event     string                 `json:"event"`
	Info      feedconfig.TrackerInfo `json:"info"`
	RunID     string                 `json:"run_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
}

// NATSTracker publishes summaries to a NATS subject
type NATSTracker struct {
	publisher Publisher
	subject   string
	logger    *core.Logger
	now       func() time.Time
}

func NewNATSTracker(publisher Publisher, subject string, logger *core.Logger) *NATSTracker {
	return &NATSTracker{
		publisher: publisher,
		subject:   subject,
		logger:    logger,
		now:       time.Now,
	}
}

// ConnectNATS dials url and returns a tracker publishing on subject plus the connection to close
func ConnectNATS(url, subject string, logger *core.Logger) (*NATSTracker, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("feedwatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("Connected to NATS", "url", url, "subject", subject)
	return NewNATSTracker(nc, subject, logger), nc, nil
}

func (t *NATSTracker) TrackFeedConfig(ctx context.Context, info feedconfig.TrackerInfo) {
	message := Message{
		Event:     "feed_config",
		Info:      info,
		RunID:     core.RunID(ctx),
		Timestamp: t.now().UTC(),
		Source:    "feedwatch",
		Version:   "1.0",
	}

	data, err := json.Marshal(message)
	if err != nil {
		metrics.TrackerEventsTotal.WithLabelValues("nats", "error").Inc()
		t.logger.Error("Failed to encode tracker info", "error", err)
		return
	}

	if err := t.publisher.Publish(t.subject, data); err != nil {
		metrics.TrackerEventsTotal.WithLabelValues("nats", "error").Inc()
		t.logger.Error("Failed to publish tracker info", "subject", t.subject, "error", err)
		return
	}

	metrics.TrackerEventsTotal.WithLabelValues("nats", "ok").Inc()
	t.logger.Debug("Published tracker info", "subject", t.subject, "bytes", len(data))
}
